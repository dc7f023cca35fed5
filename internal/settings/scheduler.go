package settings

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler periodically queues a durable sync behind the pending writes,
// so the store is flushed even when nothing calls ForceSync.
type Scheduler struct {
	c   *cron.Cron
	log *zap.Logger
}

// NewScheduler schedules syncs of cache's store on spec, which accepts the
// standard five-field syntax and descriptors such as "@every 5m".
func NewScheduler(cache *Cache, spec string) (*Scheduler, error) {
	s := &Scheduler{c: cron.New(), log: cache.log}
	if _, err := s.c.AddFunc(spec, func() {
		s.log.Debug("periodic durable sync queued")
		cache.persist.sync()
	}); err != nil {
		return nil, fmt.Errorf("settings: invalid sync schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() { s.c.Start() }

// Stop halts the schedule and waits for a running job to return.
func (s *Scheduler) Stop() {
	<-s.c.Stop().Done()
}
