// Package render turns snapshots and change events into chat messages.
// Nothing in here feeds back into the diff engine; rendering is a pure
// presentation concern.
package render

import (
	"strings"
	"time"

	"statuswatch/internal/status"
	"statuswatch/pkg/msgfmt"
)

const timeLayout = "Jan 2, 2006 15:04 UTC"

func indicator(s string) string {
	switch {
	case strings.Contains(s, "operational"), strings.Contains(s, "resolved"):
		return "🟢"
	case strings.Contains(s, "maintenance"):
		return "🔵"
	case strings.Contains(s, "degraded"), strings.Contains(s, "partial"):
		return "🟡"
	case strings.Contains(s, "outage"), strings.Contains(s, "critical"):
		return "🔴"
	default:
		return "⚪"
	}
}

func stateIcon(s status.ComponentState) string  { return indicator(string(s)) }
func statusIcon(s status.IncidentStatus) string { return indicator(string(s)) }

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Dashboard renders the pinned status overview: headline, one line per
// component, active incidents by impact, and a freshness footer.
func Dashboard(snap *status.Snapshot, now time.Time) string {
	var parts []msgfmt.H

	parts = append(parts,
		msgfmt.B("Service Status"),
		msgfmt.Raw(stateIcon(snap.Overall.Level)+" ")+msgfmt.B(snap.Overall.Description),
		"",
	)

	for _, c := range snap.Components {
		line := msgfmt.Raw(stateIcon(c.Status)+" ") + msgfmt.B(c.Name) +
			msgfmt.Raw("\n┗━ ") + msgfmt.Esc(titleCase(string(c.Status)))
		parts = append(parts, line)
	}

	if active := snap.ActiveIncidents(); len(active) > 0 {
		parts = append(parts, "", msgfmt.B("🚨 Active Incidents"))
		for _, in := range active {
			line := msgfmt.Raw(statusIcon(in.Status)+" ") + msgfmt.B(in.Title) +
				msgfmt.Raw("\n┗━ ") + msgfmt.Esc(titleCase(string(in.Impact))+" impact · "+titleCase(string(in.Status)))
			parts = append(parts, line)
		}
	}

	parts = append(parts, "", msgfmt.I("Last updated "+now.UTC().Format(timeLayout)))
	return msgfmt.Clamp(string(msgfmt.Lines(parts...)))
}

// Event renders one change event as an alert message.
func Event(ev status.ChangeEvent) string {
	var parts []msgfmt.H

	switch ev.Kind {
	case status.EventComponentStatusChanged:
		parts = append(parts,
			msgfmt.Raw(stateIcon(ev.NewStatus)+" ")+msgfmt.B(ev.ComponentName),
			msgfmt.Esc(titleCase(string(ev.OldStatus))+" → "+titleCase(string(ev.NewStatus))),
		)

	case status.EventIncidentOpened:
		parts = append(parts, msgfmt.Raw("🚨 ")+msgfmt.B("New incident: "+ev.IncidentTitle))
		if in := ev.Incident; in != nil {
			parts = append(parts, msgfmt.Esc("Impact: "+titleCase(string(in.Impact))))
			parts = append(parts, msgfmt.Esc("Status: "+titleCase(string(in.Status))))
			if latest, ok := in.LatestUpdate(); ok && latest.Body != "" {
				parts = append(parts, "", msgfmt.Esc(latest.Body))
			}
		}

	case status.EventIncidentUpdated:
		parts = append(parts, msgfmt.Raw("📝 ")+msgfmt.B("Incident update: "+ev.IncidentTitle))
		if u := ev.Update; u != nil {
			parts = append(parts,
				msgfmt.Raw(statusIcon(u.Status)+" ")+msgfmt.B(titleCase(string(u.Status)))+
					msgfmt.Raw(" · ")+msgfmt.I(u.At.UTC().Format(timeLayout)),
			)
			if u.Body != "" {
				parts = append(parts, "", msgfmt.Esc(u.Body))
			}
		}

	case status.EventIncidentResolved:
		parts = append(parts,
			msgfmt.Raw("🟢 ")+msgfmt.B("Incident resolved: "+ev.IncidentTitle),
			msgfmt.I(ev.ResolvedAt.UTC().Format(timeLayout)),
		)
	}

	return msgfmt.Clamp(string(msgfmt.Lines(parts...)))
}

// Priority maps an event to the notifier's 0..10 priority scale.
func Priority(ev status.ChangeEvent) int {
	switch ev.Kind {
	case status.EventComponentStatusChanged:
		if ev.NewStatus == status.StateOutage {
			return 8
		}
		if ev.NewStatus == status.StateOperational {
			return 3
		}
		return 5
	case status.EventIncidentOpened:
		if ev.Incident != nil && ev.Incident.Impact == status.ImpactCritical {
			return 9
		}
		return 7
	case status.EventIncidentResolved:
		return 3
	default:
		return 5
	}
}
