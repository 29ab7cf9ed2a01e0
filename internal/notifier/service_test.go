package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"statuswatch/internal/transport"
	"statuswatch/pkg/logx"
)

// fakeAdapter records sends and can fail the first N attempts.
type fakeAdapter struct {
	mu       sync.Mutex
	sent     []string
	silent   []bool
	failures int
}

func (f *fakeAdapter) SendText(_ context.Context, _ transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return transport.MessageRef{}, errors.New("flaky")
	}
	f.sent = append(f.sent, text)
	f.silent = append(f.silent, opt != nil && opt.Silent)
	return transport.MessageRef{MessageID: len(f.sent)}, nil
}

func (f *fakeAdapter) EditText(context.Context, transport.MessageRef, string, *transport.SendOptions) error {
	return nil
}

func (f *fakeAdapter) Pin(context.Context, transport.MessageRef) error { return nil }

func (f *fakeAdapter) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func testConfig() Config {
	return Config{
		Enabled:       true,
		Workers:       1,
		QueueSize:     16,
		RatePerSec:    1000,
		RetryMax:      2,
		RetryBase:     time.Millisecond,
		RetryMaxDelay: 5 * time.Millisecond,
	}
}

func TestNotifyDeliversThroughQueue(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{}
	s := New(testConfig(), ad, logx.Nop())
	s.Start(context.Background())

	if err := s.Notify(context.Background(), Notification{Target: transport.ChatTarget{ChatID: 1}, Text: "alert", Priority: 8}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if err := s.Notify(context.Background(), Notification{Target: transport.ChatTarget{ChatID: 1}, Text: "recovery", Priority: 3}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Stop(stopCtx)

	got := ad.sentTexts()
	if len(got) != 2 || got[0] != "alert" || got[1] != "recovery" {
		t.Fatalf("sent = %v", got)
	}
	// priority < 5 goes out silent
	if ad.silent[0] || !ad.silent[1] {
		t.Fatalf("silent flags = %v", ad.silent)
	}
}

func TestNotifyRetriesTransientFailure(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{failures: 2}
	s := New(testConfig(), ad, logx.Nop())
	s.Start(context.Background())

	if err := s.Notify(context.Background(), Notification{Target: transport.ChatTarget{ChatID: 1}, Text: "hi", Priority: 7}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Stop(stopCtx)

	if got := ad.sentTexts(); len(got) != 1 {
		t.Fatalf("sent = %v, want one delivery after retries", got)
	}
}

func TestNotifyDisabled(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Enabled = false
	s := New(cfg, &fakeAdapter{}, logx.Nop())
	s.Start(context.Background())

	if err := s.Notify(context.Background(), Notification{Text: "x"}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
}

func TestNotifyBeforeStartAndAfterStop(t *testing.T) {
	t.Parallel()
	s := New(testConfig(), &fakeAdapter{}, logx.Nop())

	if err := s.Notify(context.Background(), Notification{Text: "x"}); !errors.Is(err, ErrStopped) {
		t.Fatalf("before start: err = %v, want ErrStopped", err)
	}

	s.Start(context.Background())
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(stopCtx)

	if err := s.Notify(context.Background(), Notification{Text: "x"}); !errors.Is(err, ErrStopped) {
		t.Fatalf("after stop: err = %v, want ErrStopped", err)
	}
}

func TestNotifyNeverBlocksOnFullQueue(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Workers = 1
	cfg.QueueSize = 1
	cfg.RatePerSec = 1 // slow the worker down so the queue backs up
	ad := &fakeAdapter{}
	s := New(cfg, ad, logx.Nop())
	s.Start(context.Background())
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		s.Stop(stopCtx)
	}()

	sawFull := false
	for i := 0; i < 20; i++ {
		err := s.Notify(context.Background(), Notification{Text: "x", Priority: 9})
		if errors.Is(err, ErrQueueFull) {
			sawFull = true
			break
		}
		if err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}
	if !sawFull {
		t.Fatal("expected ErrQueueFull with a saturated queue")
	}
}

func TestRetryDelayBounded(t *testing.T) {
	t.Parallel()
	cfg := Config{RetryBase: time.Second, RetryMaxDelay: 4 * time.Second}
	for attempt := 1; attempt <= 10; attempt++ {
		d := retryDelay(cfg, attempt)
		if d < 0 || d > cfg.RetryMaxDelay {
			t.Fatalf("retryDelay(%d) = %v, out of bounds", attempt, d)
		}
	}
}
