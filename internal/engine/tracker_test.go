package engine

import (
	"testing"
	"time"

	"statuswatch/internal/status"
)

func incident(id string, updates ...status.IncidentUpdate) status.Incident {
	in := status.Incident{ID: id, Title: id, Impact: status.ImpactMinor, Updates: updates}
	if len(updates) > 0 {
		in.CreatedAt = updates[0].At
		last := updates[len(updates)-1]
		in.Status = last.Status
		if last.Status == status.IncidentResolved {
			t := last.At
			in.ResolvedAt = &t
		}
	}
	return in
}

func upd(st status.IncidentStatus, at time.Time) status.IncidentUpdate {
	return status.IncidentUpdate{Status: st, Body: "body", At: at}
}

func TestTrackerLifecycle(t *testing.T) {
	t.Parallel()
	tr := NewIncidentTracker(time.Hour)
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	// baseline poll: nothing is announced
	events := tr.Observe([]status.Incident{
		incident("inc-1", upd(status.IncidentInvestigating, t0)),
	}, true, t0)
	if len(events) != 0 {
		t.Fatalf("baseline produced %d events", len(events))
	}

	// new incident on a later poll
	events = tr.Observe([]status.Incident{
		incident("inc-1", upd(status.IncidentInvestigating, t0)),
		incident("inc-2", upd(status.IncidentInvestigating, t0.Add(5*time.Minute))),
	}, false, t0.Add(10*time.Minute))
	if len(events) != 1 || events[0].Kind != status.EventIncidentOpened {
		t.Fatalf("want one opened event, got %v", events)
	}
	if events[0].IncidentID != "inc-2" || events[0].Incident == nil {
		t.Fatalf("opened event malformed: %+v", events[0])
	}

	// a new update on inc-2
	events = tr.Observe([]status.Incident{
		incident("inc-1", upd(status.IncidentInvestigating, t0)),
		incident("inc-2",
			upd(status.IncidentInvestigating, t0.Add(5*time.Minute)),
			upd(status.IncidentMonitoring, t0.Add(15*time.Minute)),
		),
	}, false, t0.Add(20*time.Minute))
	if len(events) != 1 || events[0].Kind != status.EventIncidentUpdated {
		t.Fatalf("want one updated event, got %v", events)
	}
	if events[0].Update == nil || events[0].Update.Status != status.IncidentMonitoring {
		t.Fatalf("updated event must carry only the new update: %+v", events[0])
	}

	// resolution emits a resolved event, not an update
	events = tr.Observe([]status.Incident{
		incident("inc-1", upd(status.IncidentInvestigating, t0)),
		incident("inc-2",
			upd(status.IncidentInvestigating, t0.Add(5*time.Minute)),
			upd(status.IncidentMonitoring, t0.Add(15*time.Minute)),
			upd(status.IncidentResolved, t0.Add(25*time.Minute)),
		),
	}, false, t0.Add(30*time.Minute))
	if len(events) != 1 || events[0].Kind != status.EventIncidentResolved {
		t.Fatalf("want one resolved event, got %v", events)
	}
	if !events[0].ResolvedAt.Equal(t0.Add(25 * time.Minute)) {
		t.Fatalf("ResolvedAt = %v", events[0].ResolvedAt)
	}

	// re-observing the resolved incident is silent
	events = tr.Observe([]status.Incident{
		incident("inc-2",
			upd(status.IncidentInvestigating, t0.Add(5*time.Minute)),
			upd(status.IncidentResolved, t0.Add(25*time.Minute)),
		),
	}, false, t0.Add(40*time.Minute))
	if len(events) != 0 {
		t.Fatalf("resolved incident re-observation produced %v", events)
	}
}

func TestTrackerFirstSeenResolvedIsSilent(t *testing.T) {
	t.Parallel()
	tr := NewIncidentTracker(time.Hour)
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	events := tr.Observe([]status.Incident{
		incident("old", upd(status.IncidentResolved, t0.Add(-time.Hour))),
	}, false, t0)
	if len(events) != 0 {
		t.Fatalf("first-seen-resolved must be silent, got %v", events)
	}
	if !tr.Tracked("old") {
		t.Fatal("incident should still be recorded")
	}
}

func TestTrackerUnorderedUpdates(t *testing.T) {
	t.Parallel()
	tr := NewIncidentTracker(time.Hour)
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	// timeline arrives out of order; the latest-by-time update wins
	tr.Observe([]status.Incident{
		incident("inc",
			upd(status.IncidentIdentified, t0.Add(10*time.Minute)),
			upd(status.IncidentInvestigating, t0),
		),
	}, true, t0.Add(11*time.Minute))

	// an older update appearing later must not fire
	events := tr.Observe([]status.Incident{
		incident("inc",
			upd(status.IncidentIdentified, t0.Add(10*time.Minute)),
			upd(status.IncidentInvestigating, t0),
			upd(status.IncidentInvestigating, t0.Add(5*time.Minute)),
		),
	}, false, t0.Add(12*time.Minute))
	if len(events) != 0 {
		t.Fatalf("stale update produced %v", events)
	}
}

func TestTrackerSameTimestampStatusChange(t *testing.T) {
	t.Parallel()
	tr := NewIncidentTracker(time.Hour)
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tr.Observe([]status.Incident{
		incident("inc", upd(status.IncidentMonitoring, t0)),
	}, true, t0)

	// some feeds re-stamp the closing update with the same timestamp
	events := tr.Observe([]status.Incident{
		incident("inc", upd(status.IncidentResolved, t0)),
	}, false, t0.Add(time.Minute))
	if len(events) != 1 || events[0].Kind != status.EventIncidentResolved {
		t.Fatalf("want resolved event for re-stamped update, got %v", events)
	}
}

func TestTrackerSameTimestampBodyChange(t *testing.T) {
	t.Parallel()
	tr := NewIncidentTracker(time.Hour)
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tr.Observe([]status.Incident{
		incident("inc", status.IncidentUpdate{
			Status: status.IncidentMonitoring,
			Body:   "Deploying a mitigation.",
			At:     t0,
		}),
	}, true, t0)

	// the latest update edited in place: same timestamp, same status,
	// reworded body
	events := tr.Observe([]status.Incident{
		incident("inc", status.IncidentUpdate{
			Status: status.IncidentMonitoring,
			Body:   "Mitigation deployed, watching error rates.",
			At:     t0,
		}),
	}, false, t0.Add(time.Minute))
	if len(events) != 1 || events[0].Kind != status.EventIncidentUpdated {
		t.Fatalf("want updated event for edited body, got %v", events)
	}
	if events[0].Update == nil || events[0].Update.Body != "Mitigation deployed, watching error rates." {
		t.Fatalf("updated event carries wrong body: %+v", events[0])
	}

	// same body again is quiet
	events = tr.Observe([]status.Incident{
		incident("inc", status.IncidentUpdate{
			Status: status.IncidentMonitoring,
			Body:   "Mitigation deployed, watching error rates.",
			At:     t0,
		}),
	}, false, t0.Add(2*time.Minute))
	if len(events) != 0 {
		t.Fatalf("unchanged update produced %d events", len(events))
	}
}

func TestTrackerForgetsStaleResolved(t *testing.T) {
	t.Parallel()
	tr := NewIncidentTracker(time.Hour)
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tr.Observe([]status.Incident{
		incident("done", upd(status.IncidentResolved, t0)),
		incident("open", upd(status.IncidentInvestigating, t0)),
	}, true, t0)

	// both leave the feed; only the resolved one ages out
	tr.Observe(nil, false, t0.Add(2*time.Hour))
	if tr.Tracked("done") {
		t.Fatal("resolved incident should be forgotten after retention")
	}
	if !tr.Tracked("open") {
		t.Fatal("unresolved incident must be retained while absent")
	}
}

func TestTrackerSilentDisappearance(t *testing.T) {
	t.Parallel()
	tr := NewIncidentTracker(time.Hour)
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tr.Observe([]status.Incident{
		incident("inc", upd(status.IncidentInvestigating, t0)),
	}, true, t0)

	// an incident vanishing without a resolved update produces nothing
	events := tr.Observe(nil, false, t0.Add(10*time.Minute))
	if len(events) != 0 {
		t.Fatalf("disappearance produced %v", events)
	}
}
