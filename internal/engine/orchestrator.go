package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"statuswatch/internal/dedup"
	"statuswatch/internal/fetch"
	"statuswatch/internal/status"
	"statuswatch/pkg/logx"
)

// PollStatus classifies one poll cycle's outcome.
type PollStatus string

const (
	PollEmitted     PollStatus = "emitted"
	PollNoChange    PollStatus = "no_change"
	PollFetchFailed PollStatus = "fetch_failed"
)

// PollOutcome is the result of one Poll call.
//
// Snapshot is the current stored snapshot after the call: the fresh one on
// success, the previous one (possibly nil) when the fetch failed.
type PollOutcome struct {
	RunID    string
	Status   PollStatus
	Events   []status.ChangeEvent
	Snapshot *status.Snapshot
	Err      error
}

// Engine is the poll orchestrator. It owns the single authoritative last
// known snapshot and serializes poll cycles: at most one Poll executes at a
// time, and a caller arriving mid-poll blocks behind the in-flight one.
type Engine struct {
	mu sync.Mutex

	client  *fetch.Client
	tracker *IncidentTracker
	cache   *dedup.Cache
	log     logx.Logger
	now     func() time.Time

	prev *status.Snapshot
}

func New(client *fetch.Client, cache *dedup.Cache, dedupWindow time.Duration, log logx.Logger) *Engine {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Engine{
		client:  client,
		tracker: NewIncidentTracker(dedupWindow),
		cache:   cache,
		log:     log,
		now:     time.Now,
	}
}

// Seed installs a previously persisted snapshot as the diff baseline so a
// restarted process does not replay a notification storm. Incidents in the
// seed are recorded silently. Seeding after the first poll is a no-op.
func (e *Engine) Seed(snap *status.Snapshot) {
	if snap == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.prev != nil {
		return
	}
	e.prev = snap
	e.tracker.Observe(snap.Incidents, true, e.now())
	e.log.Info("baseline restored from storage",
		logx.Time("fetched_at", snap.FetchedAt),
		logx.Int("components", len(snap.Components)),
		logx.Int("incidents", len(snap.Incidents)),
	)
}

// Current returns the last successfully stored snapshot (nil before the
// first successful poll).
func (e *Engine) Current() *status.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prev
}

// Poll runs one cycle: fetch, diff against the stored snapshot, filter
// through the dedup cache, advance the stored snapshot. On fetch failure the
// stored state is left untouched so the next successful poll diffs against
// the last snapshot that was actually stored.
func (e *Engine) Poll(ctx context.Context) PollOutcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	runID := uuid.NewString()
	log := e.log.With(logx.String("run", runID))

	snap, err := e.client.Fetch(ctx)
	if err != nil {
		log.Warn("poll fetch failed; keeping stored state", logx.Err(err))
		return PollOutcome{RunID: runID, Status: PollFetchFailed, Snapshot: e.prev, Err: err}
	}

	baseline := e.prev == nil
	events := diffComponents(e.prev, snap)
	events = append(events, e.tracker.Observe(snap.Incidents, baseline, snap.FetchedAt)...)

	now := e.now()
	survivors := events[:0]
	for _, ev := range events {
		if e.cache.Admit(ev.DedupKey(), now) {
			survivors = append(survivors, ev)
		}
	}

	// Advance unconditionally: even a fully-deduped poll moves the baseline.
	e.prev = snap

	if baseline {
		log.Info("baseline established",
			logx.Int("components", len(snap.Components)),
			logx.Int("incidents", len(snap.Incidents)),
		)
	}

	if len(survivors) == 0 {
		return PollOutcome{RunID: runID, Status: PollNoChange, Snapshot: snap}
	}

	for _, ev := range survivors {
		log.Info("change detected", logx.String("event", ev.String()))
	}
	return PollOutcome{RunID: runID, Status: PollEmitted, Events: survivors, Snapshot: snap}
}
