package status

import (
	"testing"
	"time"
)

func TestDedupKeyIdentity(t *testing.T) {
	t.Parallel()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	a := ChangeEvent{
		Kind:        EventComponentStatusChanged,
		OccurredAt:  at,
		ComponentID: "api",
		OldStatus:   StateOperational,
		NewStatus:   StateOutage,
	}
	b := a
	b.OccurredAt = at.Add(time.Hour) // observation time must not matter

	if a.DedupKey() != b.DedupKey() {
		t.Fatal("same change at different observation times must share a key")
	}
}

func TestDedupKeyDistinctness(t *testing.T) {
	t.Parallel()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	update := IncidentUpdate{Status: IncidentMonitoring, At: at}
	laterUpdate := IncidentUpdate{Status: IncidentMonitoring, At: at.Add(time.Minute)}

	events := []ChangeEvent{
		{Kind: EventComponentStatusChanged, ComponentID: "api", OldStatus: StateOperational, NewStatus: StateOutage},
		{Kind: EventComponentStatusChanged, ComponentID: "api", OldStatus: StateOutage, NewStatus: StateOperational},
		{Kind: EventComponentStatusChanged, ComponentID: "web", OldStatus: StateOperational, NewStatus: StateOutage},
		{Kind: EventIncidentOpened, IncidentID: "inc-1"},
		{Kind: EventIncidentOpened, IncidentID: "inc-2"},
		{Kind: EventIncidentUpdated, IncidentID: "inc-1", Update: &update},
		{Kind: EventIncidentUpdated, IncidentID: "inc-1", Update: &laterUpdate},
		{Kind: EventIncidentResolved, IncidentID: "inc-1"},
	}

	seen := map[string]int{}
	for i, ev := range events {
		key := ev.DedupKey()
		if prev, dup := seen[key]; dup {
			t.Fatalf("events %d and %d collide on key %s", prev, i, key)
		}
		seen[key] = i
	}
}

func TestLatestUpdate(t *testing.T) {
	t.Parallel()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		updates []IncidentUpdate
		want    IncidentStatus
		ok      bool
	}{
		{name: "empty", updates: nil, ok: false},
		{
			name: "ordered",
			updates: []IncidentUpdate{
				{Status: IncidentInvestigating, At: at},
				{Status: IncidentResolved, At: at.Add(time.Hour)},
			},
			want: IncidentResolved, ok: true,
		},
		{
			name: "unordered",
			updates: []IncidentUpdate{
				{Status: IncidentMonitoring, At: at.Add(time.Hour)},
				{Status: IncidentInvestigating, At: at},
			},
			want: IncidentMonitoring, ok: true,
		},
		{
			name: "tie goes to later entry",
			updates: []IncidentUpdate{
				{Status: IncidentMonitoring, At: at},
				{Status: IncidentResolved, At: at},
			},
			want: IncidentResolved, ok: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Incident{Updates: tt.updates}.LatestUpdate()
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got.Status != tt.want {
				t.Fatalf("Status = %s, want %s", got.Status, tt.want)
			}
		})
	}
}

func TestActiveIncidentsSortedByImpact(t *testing.T) {
	t.Parallel()
	snap := &Snapshot{Incidents: []Incident{
		{ID: "a", Impact: ImpactMinor, Status: IncidentInvestigating},
		{ID: "b", Impact: ImpactCritical, Status: IncidentMonitoring},
		{ID: "c", Impact: ImpactMinor, Status: IncidentResolved},
		{ID: "d", Impact: ImpactMajor, Status: IncidentIdentified},
		{ID: "e", Impact: ImpactMinor, Status: IncidentInvestigating},
	}}

	got := snap.ActiveIncidents()
	wantOrder := []string{"b", "d", "a", "e"}
	if len(got) != len(wantOrder) {
		t.Fatalf("got %d incidents, want %d", len(got), len(wantOrder))
	}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Fatalf("position %d = %s, want %s", i, got[i].ID, id)
		}
	}
}
