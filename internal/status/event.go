package status

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"time"
)

// EventKind tags a ChangeEvent.
type EventKind string

const (
	EventComponentStatusChanged EventKind = "component_status_changed"
	EventIncidentOpened         EventKind = "incident_opened"
	EventIncidentUpdated        EventKind = "incident_updated"
	EventIncidentResolved       EventKind = "incident_resolved"
)

// ChangeEvent is one meaningful change between two consecutive snapshots.
//
// Which fields are set depends on Kind:
//   - EventComponentStatusChanged: ComponentID, ComponentName, OldStatus, NewStatus
//   - EventIncidentOpened:         IncidentID, IncidentTitle, Incident
//   - EventIncidentUpdated:        IncidentID, IncidentTitle, Update
//   - EventIncidentResolved:       IncidentID, IncidentTitle, ResolvedAt
type ChangeEvent struct {
	Kind       EventKind `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`

	ComponentID   string         `json:"component_id,omitempty"`
	ComponentName string         `json:"component_name,omitempty"`
	OldStatus     ComponentState `json:"old_status,omitempty"`
	NewStatus     ComponentState `json:"new_status,omitempty"`

	IncidentID    string          `json:"incident_id,omitempty"`
	IncidentTitle string          `json:"incident_title,omitempty"`
	Incident      *Incident       `json:"incident,omitempty"`
	Update        *IncidentUpdate `json:"update,omitempty"`
	ResolvedAt    time.Time       `json:"resolved_at,omitempty"`
}

// DedupKey returns the deterministic identity string for this event.
// Two events describing the same change always hash to the same key,
// regardless of when they were observed.
func (e ChangeEvent) DedupKey() string {
	h := fnv.New64a()
	write := func(parts ...string) {
		for _, p := range parts {
			_, _ = h.Write([]byte(p))
			_, _ = h.Write([]byte("|"))
		}
	}

	switch e.Kind {
	case EventComponentStatusChanged:
		write(string(e.Kind), e.ComponentID, string(e.OldStatus), string(e.NewStatus))
	case EventIncidentOpened:
		write(string(e.Kind), e.IncidentID)
	case EventIncidentUpdated:
		var ts, st string
		if e.Update != nil {
			ts = strconv.FormatInt(e.Update.At.Unix(), 10)
			st = string(e.Update.Status)
		}
		write(string(e.Kind), e.IncidentID, st, ts)
	case EventIncidentResolved:
		write(string(e.Kind), e.IncidentID)
	default:
		write(string(e.Kind))
	}

	return fmt.Sprintf("%x", h.Sum64())
}

// String renders a short one-line description, used in logs only.
func (e ChangeEvent) String() string {
	switch e.Kind {
	case EventComponentStatusChanged:
		return fmt.Sprintf("component %s: %s -> %s", e.ComponentID, e.OldStatus, e.NewStatus)
	case EventIncidentOpened:
		return fmt.Sprintf("incident opened: %s", e.IncidentID)
	case EventIncidentUpdated:
		return fmt.Sprintf("incident updated: %s", e.IncidentID)
	case EventIncidentResolved:
		return fmt.Sprintf("incident resolved: %s", e.IncidentID)
	default:
		return string(e.Kind)
	}
}
