// Package status holds the parsed view of a status page and the change
// events derived from comparing consecutive views.
package status

import (
	"sort"
	"time"
)

// ComponentState is the health of a single component (or of the page overall).
type ComponentState string

const (
	StateOperational ComponentState = "operational"
	StateDegraded    ComponentState = "degraded"
	StateOutage      ComponentState = "outage"
	StateMaintenance ComponentState = "maintenance"
)

// IncidentStatus is the lifecycle stage reported by the latest incident update.
type IncidentStatus string

const (
	IncidentInvestigating IncidentStatus = "investigating"
	IncidentIdentified    IncidentStatus = "identified"
	IncidentMonitoring    IncidentStatus = "monitoring"
	IncidentResolved      IncidentStatus = "resolved"
)

// Impact is the severity classification of an incident.
type Impact string

const (
	ImpactNone     Impact = "none"
	ImpactMinor    Impact = "minor"
	ImpactMajor    Impact = "major"
	ImpactCritical Impact = "critical"
)

// ComponentStatus is one component's state at a single poll.
// Values are immutable; a fresh one is produced each fetch.
type ComponentStatus struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Status   ComponentState `json:"status"`
	Position int            `json:"position"`
}

// IncidentUpdate is one entry in an incident's timeline.
type IncidentUpdate struct {
	Status IncidentStatus `json:"status"`
	Body   string         `json:"body"`
	At     time.Time      `json:"at"`
}

// Incident is one incident as reported by the feed.
//
// Updates holds the full timeline as parsed from the page; it is replaced
// wholesale every fetch, never diffed entry-by-entry against prior raw text.
// Status mirrors the status of the chronologically latest update.
type Incident struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Impact     Impact           `json:"impact"`
	Status     IncidentStatus   `json:"status"`
	Updates    []IncidentUpdate `json:"updates"`
	CreatedAt  time.Time        `json:"created_at"`
	ResolvedAt *time.Time       `json:"resolved_at,omitempty"`
}

// LatestUpdate returns the chronologically latest update, with ties broken by
// position in Updates (later entry wins). The feed normally emits updates
// sorted ascending by timestamp, but we do not rely on that.
func (in Incident) LatestUpdate() (IncidentUpdate, bool) {
	if len(in.Updates) == 0 {
		return IncidentUpdate{}, false
	}
	best := 0
	for i := 1; i < len(in.Updates); i++ {
		if !in.Updates[i].At.Before(in.Updates[best].At) {
			best = i
		}
	}
	return in.Updates[best], true
}

// Overall is the page-level headline status.
type Overall struct {
	Description string         `json:"description"`
	Level       ComponentState `json:"level"`
}

// Snapshot is one point-in-time, fully parsed view of the status page.
// It is immutable once constructed.
type Snapshot struct {
	FetchedAt  time.Time         `json:"fetched_at"`
	Overall    Overall           `json:"overall"`
	Components []ComponentStatus `json:"components"`
	Incidents  []Incident        `json:"incidents"`
}

// Component returns the component with the given id, if present.
func (s *Snapshot) Component(id string) (ComponentStatus, bool) {
	for _, c := range s.Components {
		if c.ID == id {
			return c, true
		}
	}
	return ComponentStatus{}, false
}

// Incident returns the incident with the given id, if present.
func (s *Snapshot) Incident(id string) (Incident, bool) {
	for _, in := range s.Incidents {
		if in.ID == id {
			return in, true
		}
	}
	return Incident{}, false
}

// ActiveIncidents returns unresolved incidents sorted by impact
// (critical first), preserving feed order within the same impact.
func (s *Snapshot) ActiveIncidents() []Incident {
	out := make([]Incident, 0, len(s.Incidents))
	for _, in := range s.Incidents {
		if in.Status != IncidentResolved {
			out = append(out, in)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return impactRank(out[i].Impact) > impactRank(out[j].Impact)
	})
	return out
}

func impactRank(im Impact) int {
	switch im {
	case ImpactCritical:
		return 3
	case ImpactMajor:
		return 2
	case ImpactMinor:
		return 1
	default:
		return 0
	}
}
