package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"statuswatch/pkg/logx"
)

func TestNewRejectsBadArgs(t *testing.T) {
	t.Parallel()
	if _, err := New(0, func(context.Context) {}, logx.Nop()); err == nil {
		t.Fatalf("New with zero interval: want error")
	}
	if _, err := New(-time.Second, func(context.Context) {}, logx.Nop()); err == nil {
		t.Fatalf("New with negative interval: want error")
	}
	if _, err := New(time.Minute, nil, logx.Nop()); err == nil {
		t.Fatalf("New with nil job: want error")
	}
}

func TestApplyRejectsNonPositiveInterval(t *testing.T) {
	t.Parallel()
	s, err := New(time.Minute, func(context.Context) {}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Apply(0); err == nil {
		t.Fatalf("Apply(0): want error")
	}
	if err := s.Apply(-time.Minute); err == nil {
		t.Fatalf("Apply(-1m): want error")
	}
	// unchanged interval is a no-op even before Start
	if err := s.Apply(time.Minute); err != nil {
		t.Fatalf("Apply(same): %v", err)
	}
}

// A tick arriving while the previous job still runs must be dropped,
// not queued behind it.
func TestTickSkipsWhileJobRunning(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	var runs int32
	job := func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
		close(started)
		<-release
	}

	s, err := New(time.Hour, job, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.mu.Lock()
	s.runCtx, s.runCancel = context.WithCancel(context.Background())
	s.mu.Unlock()
	defer s.runCancel()

	done := make(chan struct{})
	go func() {
		s.tick()
		close(done)
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatalf("first tick never ran the job")
	}

	// second tick while the job holds the slot: returns immediately
	s.tick()
	if got := atomic.LoadInt32(&runs); got != 1 {
		t.Fatalf("runs after overlapping tick = %d, want 1", got)
	}

	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("first tick never finished")
	}

	// slot is free again, so a fresh tick runs the job
	release = make(chan struct{})
	close(release)
	started = make(chan struct{})
	s.tick()
	if got := atomic.LoadInt32(&runs); got != 2 {
		t.Fatalf("runs after job finished = %d, want 2", got)
	}
}

func TestTickWithoutStartIsNoop(t *testing.T) {
	t.Parallel()
	var runs int32
	s, err := New(time.Hour, func(context.Context) { atomic.AddInt32(&runs, 1) }, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.tick()
	if got := atomic.LoadInt32(&runs); got != 0 {
		t.Fatalf("runs without Start = %d, want 0", got)
	}
}
