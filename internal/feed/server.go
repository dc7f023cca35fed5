package feed

import (
	"encoding/json"
	"errors"
	"net"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/leonardcser/fm-prefs/internal/store"
)

// Server is the configuration daemon: it owns the installed schemas, keeps
// their values in a durable store and pushes changes to watchers.
type Server struct {
	kv  store.KV
	log *zap.Logger

	mu       sync.RWMutex
	schemas  map[string]bool
	watchers map[string]map[*watcher]struct{}
}

type watcher struct {
	mu   sync.Mutex
	enc  *json.Encoder
	conn net.Conn
}

func (w *watcher) send(ev Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(ev)
}

func NewServer(kv store.KV, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		kv:       kv,
		log:      log,
		schemas:  make(map[string]bool),
		watchers: make(map[string]map[*watcher]struct{}),
	}
}

func storeKey(schema, key string) string { return schema + "/" + key }

// Install registers schema and seeds defaults for keys not yet stored.
func (s *Server) Install(schema string, defaults map[string]string) error {
	for k, v := range defaults {
		if _, err := s.kv.Get(storeKey(schema, k)); errors.Is(err, store.ErrNotFound) {
			if err := s.kv.Put(storeKey(schema, k), []byte(v)); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.schemas[schema] = true
	s.mu.Unlock()
	s.log.Info("schema installed", zap.String("schema", schema), zap.Int("defaults", len(defaults)))
	return nil
}

func (s *Server) installed(schema string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schemas[schema]
}

// Set stores value and pushes an Event to the schema's watchers.
func (s *Server) Set(schema, key, value string) error {
	if !s.installed(schema) {
		return ErrNotInstalled
	}
	if err := s.kv.Put(storeKey(schema, key), []byte(value)); err != nil {
		return err
	}
	s.mu.RLock()
	targets := make([]*watcher, 0, len(s.watchers[schema]))
	for w := range s.watchers[schema] {
		targets = append(targets, w)
	}
	s.mu.RUnlock()

	for _, w := range targets {
		if err := w.send(Event{Key: key, Value: value}); err != nil {
			s.removeWatcher(schema, w)
		}
	}
	return nil
}

func (s *Server) get(schema, key string) (string, bool, error) {
	v, err := s.kv.Get(storeKey(schema, key))
	if errors.Is(err, store.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(v), true, nil
}

func (s *Server) list(schema string) ([]string, error) {
	keys, err := s.kv.Keys()
	if err != nil {
		return nil, err
	}
	prefix := schema + "/"
	out := []string{}
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, strings.TrimPrefix(k, prefix))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Server) addWatcher(schema string, w *watcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watchers[schema] == nil {
		s.watchers[schema] = make(map[*watcher]struct{})
	}
	s.watchers[schema][w] = struct{}{}
}

func (s *Server) removeWatcher(schema string, w *watcher) {
	s.mu.Lock()
	delete(s.watchers[schema], w)
	s.mu.Unlock()
	_ = w.conn.Close()
}

// Serve accepts connections until l is closed.
func (s *Server) Serve(l net.Listener) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn("accept failed", zap.Error(err))
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			_ = conn.Close()
			return
		}
		if req.Op == "has" {
			_ = enc.Encode(Response{OK: true, Found: s.installed(req.Schema)})
			continue
		}
		if !s.installed(req.Schema) {
			_ = enc.Encode(Response{OK: false, Error: ErrNotInstalled.Error()})
			continue
		}
		switch req.Op {
		case "get":
			v, found, err := s.get(req.Schema, req.Key)
			if err != nil {
				_ = enc.Encode(Response{OK: false, Error: err.Error()})
				continue
			}
			_ = enc.Encode(Response{OK: true, Found: found, Value: v})
		case "set":
			if err := s.Set(req.Schema, req.Key, req.Value); err != nil {
				_ = enc.Encode(Response{OK: false, Error: err.Error()})
				continue
			}
			_ = enc.Encode(Response{OK: true})
		case "list":
			keys, err := s.list(req.Schema)
			if err != nil {
				_ = enc.Encode(Response{OK: false, Error: err.Error()})
				continue
			}
			_ = enc.Encode(Response{OK: true, Keys: keys})
		case "watch":
			w := &watcher{enc: enc, conn: conn}
			w.mu.Lock()
			s.addWatcher(req.Schema, w)
			err := enc.Encode(Response{OK: true})
			w.mu.Unlock()
			if err != nil {
				s.removeWatcher(req.Schema, w)
				return
			}
			// The connection now belongs to the watcher; block until the
			// client hangs up.
			var discard json.RawMessage
			for dec.Decode(&discard) == nil {
			}
			s.removeWatcher(req.Schema, w)
			return
		default:
			_ = enc.Encode(Response{OK: false, Error: "unknown op"})
		}
	}
}
