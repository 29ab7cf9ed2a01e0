// Package scheduler fires the poll job on a fixed interval. It is the only
// trigger in the process; the engine itself owns no timers.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"statuswatch/pkg/logx"
)

type Service struct {
	log logx.Logger
	job func(ctx context.Context)

	mu       sync.Mutex
	interval time.Duration
	c        *cron.Cron
	entry    cron.EntryID

	// inFlight enforces overlap-skip: a tick that arrives while the previous
	// job still runs is dropped, never queued.
	inFlight sync.Mutex

	runCtx    context.Context
	runCancel context.CancelFunc
}

func New(interval time.Duration, job func(ctx context.Context), log logx.Logger) (*Service, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("scheduler: interval must be > 0, got %s", interval)
	}
	if job == nil {
		return nil, fmt.Errorf("scheduler: job is nil")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{log: log, job: job, interval: interval}, nil
}

// Start begins ticking; the first run fires immediately rather than waiting
// a full interval.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}

	s.runCtx, s.runCancel = context.WithCancel(ctx)
	s.c = cron.New()
	id, err := s.c.AddFunc(fmt.Sprintf("@every %s", s.interval), s.tick)
	if err != nil {
		s.c = nil
		return fmt.Errorf("scheduler: register interval: %w", err)
	}
	s.entry = id
	s.c.Start()
	s.log.Info("scheduler started", logx.Duration("interval", s.interval))

	go s.tick()
	return nil
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	cancel := s.runCancel
	s.c = nil
	s.runCancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	s.log.Info("scheduler stopped")
}

// Apply changes the tick interval at runtime.
func (s *Service) Apply(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("scheduler: interval must be > 0, got %s", interval)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if interval == s.interval {
		return nil
	}
	s.interval = interval
	if s.c == nil {
		return nil
	}
	s.c.Remove(s.entry)
	id, err := s.c.AddFunc(fmt.Sprintf("@every %s", interval), s.tick)
	if err != nil {
		return fmt.Errorf("scheduler: register interval: %w", err)
	}
	s.entry = id
	s.log.Info("scheduler interval changed", logx.Duration("interval", interval))
	return nil
}

func (s *Service) tick() {
	if !s.inFlight.TryLock() {
		s.log.Warn("previous poll still running; skipping tick")
		return
	}
	defer s.inFlight.Unlock()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic in poll job",
				logx.Any("panic", r),
				logx.String("stack", string(debug.Stack())),
			)
		}
	}()

	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	s.job(ctx)
}
