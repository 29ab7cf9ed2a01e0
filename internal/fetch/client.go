// Package fetch retrieves status snapshots with bounded retries and
// exponential backoff. It never parses markup itself; a Source collaborator
// does one fetch-and-parse attempt, and the Client owns the retry budget.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"statuswatch/internal/status"
	"statuswatch/pkg/logx"
)

// ErrBadConfig marks construction-time validation failures.
var ErrBadConfig = errors.New("fetch: invalid config")

// Source performs one fetch-and-parse attempt. Implementations must honor
// ctx cancellation; every returned error is treated as transient.
type Source interface {
	Fetch(ctx context.Context) (*status.Snapshot, error)
}

// Config bounds a single Fetch call.
//
// A call makes at most MaxRetries+1 attempts; each attempt is limited to
// Timeout, and the wait between attempts is min(BaseBackoff*2^n, MaxBackoff),
// jittered by +-Jitter (fraction, e.g. 0.2 = 20%).
type Config struct {
	Timeout     time.Duration
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Jitter      float64
}

func (c Config) validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be > 0", ErrBadConfig)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must be >= 0", ErrBadConfig)
	}
	if c.BaseBackoff < 0 || c.MaxBackoff < 0 {
		return fmt.Errorf("%w: backoff durations must be >= 0", ErrBadConfig)
	}
	if c.Jitter < 0 || c.Jitter >= 1 {
		if c.Jitter != 0 {
			return fmt.Errorf("%w: jitter must be in [0, 1)", ErrBadConfig)
		}
	}
	return nil
}

// FetchError is the terminal failure returned once the retry budget is
// exhausted. It wraps the last underlying cause.
type FetchError struct {
	Attempts  int
	LastCause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed after %d attempts: %v", e.Attempts, e.LastCause)
}

func (e *FetchError) Unwrap() error { return e.LastCause }

// Client is the resilient fetch client.
type Client struct {
	cfg Config
	src Source
	log logx.Logger

	// sleep is swapped in tests to avoid real waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg Config, src Source, log logx.Logger) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("%w: source is nil", ErrBadConfig)
	}
	if cfg.BaseBackoff == 0 {
		cfg.BaseBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = 10 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{cfg: cfg, src: src, log: log, sleep: sleepCtx}, nil
}

// Fetch runs the attempt loop. On success it returns a fully-formed snapshot;
// after the budget is exhausted it returns a *FetchError. Parent-context
// cancellation aborts between attempts without consuming the remaining budget.
func (c *Client) Fetch(ctx context.Context) (*status.Snapshot, error) {
	attempts := c.cfg.MaxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		actx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		snap, err := c.src.Fetch(actx)
		cancel()
		if err == nil {
			if attempt > 0 {
				c.log.Info("fetch recovered", logx.Int("attempt", attempt+1))
			}
			return snap, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, &FetchError{Attempts: attempt + 1, LastCause: ctx.Err()}
		}
		if attempt == attempts-1 {
			break
		}

		d := c.backoffDelay(attempt)
		c.log.Warn("fetch attempt failed",
			logx.Int("attempt", attempt+1),
			logx.Int("remaining", attempts-attempt-1),
			logx.Duration("backoff", d),
			logx.Err(err),
		)
		if err := c.sleep(ctx, d); err != nil {
			return nil, &FetchError{Attempts: attempt + 1, LastCause: err}
		}
	}

	c.log.Error("fetch budget exhausted", logx.Int("attempts", attempts), logx.Err(lastErr))
	return nil, &FetchError{Attempts: attempts, LastCause: lastErr}
}

// backoffDelay computes the wait after the given zero-based attempt:
// min(base*2^attempt, max), then jitter.
func (c *Client) backoffDelay(attempt int) time.Duration {
	d := c.cfg.BaseBackoff
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= c.cfg.MaxBackoff {
			d = c.cfg.MaxBackoff
			break
		}
	}
	if d > c.cfg.MaxBackoff {
		d = c.cfg.MaxBackoff
	}
	if c.cfg.Jitter > 0 {
		f := 1 + (rand.Float64()*2-1)*c.cfg.Jitter
		d = time.Duration(float64(d) * f)
		if d > c.cfg.MaxBackoff {
			d = c.cfg.MaxBackoff
		}
		if d < 0 {
			d = 0
		}
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
