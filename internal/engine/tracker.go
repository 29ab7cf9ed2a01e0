package engine

import (
	"time"

	"statuswatch/internal/status"
)

// incidentRecord is the tracker's memory of one incident id: the latest
// update we have reported on, and whether we saw it reach resolved.
type incidentRecord struct {
	lastStatus   status.IncidentStatus
	lastUpdateAt time.Time
	lastBody     string
	resolved     bool
	resolvedAt   time.Time
}

// IncidentTracker drives the per-incident state machine (unseen -> open ->
// resolved) across polls. It is not safe for concurrent use; the orchestrator
// serializes access.
type IncidentTracker struct {
	// retention keeps resolved ids that left the feed around long enough
	// that a stale reappearance cannot re-open them.
	retention time.Duration
	records   map[string]*incidentRecord
}

func NewIncidentTracker(retention time.Duration) *IncidentTracker {
	if retention < 0 {
		retention = 0
	}
	return &IncidentTracker{
		retention: retention,
		records:   map[string]*incidentRecord{},
	}
}

// Observe feeds one poll's incident list through the state machine and
// returns the lifecycle events, in input order.
//
// With baseline set (first successful poll), every incident is recorded
// silently. An incident whose first-ever observation is already resolved
// never produces an event: there is nothing actionable to notify.
func (t *IncidentTracker) Observe(incidents []status.Incident, baseline bool, now time.Time) []status.ChangeEvent {
	var out []status.ChangeEvent
	present := make(map[string]struct{}, len(incidents))

	for _, in := range incidents {
		present[in.ID] = struct{}{}

		latest, ok := in.LatestUpdate()
		if !ok {
			// Feed invariant violation (incident without updates); skip.
			continue
		}

		rec, known := t.records[in.ID]
		if !known {
			t.records[in.ID] = recordFor(latest)
			if baseline || latest.Status == status.IncidentResolved {
				continue
			}
			inCopy := in
			out = append(out, status.ChangeEvent{
				Kind:          status.EventIncidentOpened,
				OccurredAt:    now,
				IncidentID:    in.ID,
				IncidentTitle: in.Title,
				Incident:      &inCopy,
			})
			continue
		}

		if !isNewUpdate(rec, latest) {
			continue
		}

		switch {
		case latest.Status == status.IncidentResolved && !rec.resolved:
			out = append(out, status.ChangeEvent{
				Kind:          status.EventIncidentResolved,
				OccurredAt:    now,
				IncidentID:    in.ID,
				IncidentTitle: in.Title,
				ResolvedAt:    latest.At,
			})
		case latest.Status != status.IncidentResolved:
			upd := latest
			out = append(out, status.ChangeEvent{
				Kind:          status.EventIncidentUpdated,
				OccurredAt:    now,
				IncidentID:    in.ID,
				IncidentTitle: in.Title,
				Update:        &upd,
			})
		}

		*rec = *recordFor(latest)
	}

	t.forgetStale(present, now)
	return out
}

// isNewUpdate reports whether latest differs from the last observed update
// for the record: a strictly later timestamp, or the same timestamp with a
// different status or body (some feeds re-stamp or edit the latest update
// in place).
func isNewUpdate(rec *incidentRecord, latest status.IncidentUpdate) bool {
	if latest.At.After(rec.lastUpdateAt) {
		return true
	}
	return latest.At.Equal(rec.lastUpdateAt) &&
		(latest.Status != rec.lastStatus || latest.Body != rec.lastBody)
}

func recordFor(latest status.IncidentUpdate) *incidentRecord {
	rec := &incidentRecord{
		lastStatus:   latest.Status,
		lastUpdateAt: latest.At,
		lastBody:     latest.Body,
	}
	if latest.Status == status.IncidentResolved {
		rec.resolved = true
		rec.resolvedAt = latest.At
	}
	return rec
}

// forgetStale drops resolved incidents that have left the feed and outlived
// the retention window. Unresolved ids are kept even while absent so a feed
// hiccup cannot re-open them; the set stays small (distinct incident ids).
func (t *IncidentTracker) forgetStale(present map[string]struct{}, now time.Time) {
	for id, rec := range t.records {
		if _, ok := present[id]; ok {
			continue
		}
		if rec.resolved && !now.Before(rec.resolvedAt.Add(t.retention)) {
			delete(t.records, id)
		}
	}
}

// Tracked reports whether an incident id is currently remembered.
func (t *IncidentTracker) Tracked(id string) bool {
	_, ok := t.records[id]
	return ok
}
