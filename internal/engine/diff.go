// Package engine compares consecutive status snapshots and turns them into a
// minimal stream of change events: the diff over components, the incident
// lifecycle tracker, and the poll orchestrator that owns the last known state.
package engine

import (
	"statuswatch/internal/status"
)

// diffComponents emits ComponentStatusChanged for every component present in
// both snapshots with a differing status, in current-snapshot input order.
//
// Components absent from prev are baseline additions and produce no event,
// matching the whole-snapshot baseline rule; components that disappeared from
// cur are ignored (the source dropped them).
func diffComponents(prev, cur *status.Snapshot) []status.ChangeEvent {
	if prev == nil {
		return nil
	}
	var out []status.ChangeEvent
	for _, c := range cur.Components {
		old, ok := prev.Component(c.ID)
		if !ok || old.Status == c.Status {
			continue
		}
		out = append(out, status.ChangeEvent{
			Kind:          status.EventComponentStatusChanged,
			OccurredAt:    cur.FetchedAt,
			ComponentID:   c.ID,
			ComponentName: c.Name,
			OldStatus:     old.Status,
			NewStatus:     c.Status,
		})
	}
	return out
}
