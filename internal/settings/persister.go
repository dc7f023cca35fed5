package settings

import (
	"context"
	"sync"
	"time"

	"github.com/smallnest/chanx"
	"go.uber.org/zap"

	"github.com/leonardcser/fm-prefs/internal/store"
)

type opKind int

const (
	opPut opKind = iota
	opDelete
	opClear
	opSync
	opBarrier
)

func (k opKind) String() string {
	switch k {
	case opPut:
		return "put"
	case opDelete:
		return "delete"
	case opClear:
		return "clear"
	case opSync:
		return "sync"
	default:
		return "barrier"
	}
}

type op struct {
	kind  opKind
	key   string
	value []byte
	done  chan struct{}
}

// persister mirrors cache mutations into the durable store. A single
// writer drains an unbounded queue, so operations reach the store in the
// order they were issued. Each operation waits at most lockTimeout for the
// storage lock and is dropped if it cannot get it.
type persister struct {
	kv          store.KV
	log         *zap.Logger
	lock        chan struct{}
	lockTimeout time.Duration

	queue  *chanx.UnboundedChan[op]
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func newPersister(kv store.KV, log *zap.Logger, lockTimeout time.Duration, queueSize int) *persister {
	ctx, cancel := context.WithCancel(context.Background())
	p := &persister{
		kv:          kv,
		log:         log,
		lock:        make(chan struct{}, 1),
		lockTimeout: lockTimeout,
		queue:       chanx.NewUnboundedChan[op](ctx, queueSize),
		cancel:      cancel,
	}
	p.wg.Add(1)
	go p.processLoop()
	return p
}

// enqueue reports false once the persister is closed.
func (p *persister) enqueue(o op) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	p.queue.In <- o
	return true
}

func (p *persister) put(key string, value []byte) { p.enqueue(op{kind: opPut, key: key, value: value}) }
func (p *persister) remove(key string)            { p.enqueue(op{kind: opDelete, key: key}) }
func (p *persister) clear()                       { p.enqueue(op{kind: opClear}) }
func (p *persister) sync()                        { p.enqueue(op{kind: opSync}) }

// flush blocks until every operation queued before it has been applied
// or dropped.
func (p *persister) flush() {
	done := make(chan struct{})
	if !p.enqueue(op{kind: opBarrier, done: done}) {
		return
	}
	<-done
}

func (p *persister) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue.In)
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
}

func (p *persister) tryLock() bool {
	t := time.NewTimer(p.lockTimeout)
	defer t.Stop()
	select {
	case p.lock <- struct{}{}:
		return true
	case <-t.C:
		return false
	}
}

func (p *persister) lockStorage()   { p.lock <- struct{}{} }
func (p *persister) unlockStorage() { <-p.lock }

func (p *persister) processLoop() {
	defer p.wg.Done()
	for o := range p.queue.Out {
		p.apply(o)
	}
}

func (p *persister) apply(o op) {
	if o.kind == opBarrier {
		close(o.done)
		return
	}
	if !p.tryLock() {
		p.log.Warn("storage busy, durable write skipped",
			zap.Stringer("op", o.kind),
			zap.String("key", o.key),
			zap.Duration("timeout", p.lockTimeout),
		)
		return
	}
	defer p.unlockStorage()

	var err error
	switch o.kind {
	case opPut:
		err = p.kv.Put(o.key, o.value)
	case opDelete:
		err = p.kv.Delete(o.key)
	case opClear:
		err = p.kv.Clear()
	}
	if err == nil {
		err = p.kv.Sync()
	}
	if err != nil {
		p.log.Warn("durable write failed",
			zap.Stringer("op", o.kind),
			zap.String("key", o.key),
			zap.Error(err),
		)
	}
}
