// Package statuspage turns a statuspage-style HTML document into a
// status.Snapshot. It is the only place that knows about the page's DOM;
// everything downstream works on parsed values.
package statuspage

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"statuswatch/internal/status"
)

// DOM selectors for the page. Kept in one place so a page redesign is a
// one-file fix.
const (
	selOverall            = ".overall-status"
	selOverallDescription = ".overall-status__description"
	selComponent          = ".component-container"
	selComponentName      = ".name"
	selComponentStatus    = ".component-status"
	selStatusDay          = ".status-day"
	selIncident           = ".incident-container"
	selIncidentTitle      = ".incident-title"
	selIncidentUpdate     = ".update"
	selUpdateMessage      = ".whitespace-pre-wrap"
)

// Parser parses status page documents.
//
// Components filters parsed components by display name; empty means keep all.
// Location is the timezone incident update timestamps are rendered in by the
// page (nil means UTC).
type Parser struct {
	Components []string
	Location   *time.Location
}

// Parse reads an HTML document and returns the snapshot it describes.
// A document with neither an overall status block nor any component
// containers is considered malformed.
func (p *Parser) Parse(r io.Reader, fetchedAt time.Time) (*status.Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("statuspage: parse document: %w", err)
	}

	components := p.parseComponents(doc)
	overall, overallFound := parseOverall(doc, components)

	if !overallFound && doc.Find(selComponent).Length() == 0 {
		return nil, fmt.Errorf("statuspage: document has no status markup")
	}

	return &status.Snapshot{
		FetchedAt:  fetchedAt.UTC(),
		Overall:    overall,
		Components: components,
		Incidents:  p.parseIncidents(doc, fetchedAt),
	}, nil
}

func (p *Parser) keepComponent(name string) bool {
	if len(p.Components) == 0 {
		return true
	}
	for _, want := range p.Components {
		if strings.EqualFold(strings.TrimSpace(want), name) {
			return true
		}
	}
	return false
}

func (p *Parser) parseComponents(doc *goquery.Document) []status.ComponentStatus {
	var out []status.ComponentStatus
	doc.Find(selComponent).Each(func(i int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Find(selComponentName).First().Text())
		if name == "" || !p.keepComponent(name) {
			return
		}
		raw := strings.TrimSpace(sel.Find(selComponentStatus).First().Text())
		out = append(out, status.ComponentStatus{
			ID:       slug(name),
			Name:     name,
			Status:   componentState(raw),
			Position: i,
		})
	})
	return out
}

// parseOverall reads the page headline. Component states override the parsed
// headline level: any outage wins over degraded, which wins over the class
// reported by the page.
func parseOverall(doc *goquery.Document, components []status.ComponentStatus) (status.Overall, bool) {
	block := doc.Find(selOverall).First()
	found := block.Length() > 0

	description := strings.TrimSpace(doc.Find(selOverallDescription).First().Text())
	level := classLevel(block.AttrOr("class", ""))

	hasOutage, hasDegraded := false, false
	for _, c := range components {
		switch c.Status {
		case status.StateOutage:
			hasOutage = true
		case status.StateDegraded:
			hasDegraded = true
		}
	}
	switch {
	case hasOutage:
		level = status.StateOutage
		description = "System Outage"
	case hasDegraded:
		level = status.StateDegraded
		description = "Degraded Performance"
	case description == "":
		description = "All Systems Operational"
	}

	return status.Overall{Description: description, Level: level}, found
}

func (p *Parser) parseIncidents(doc *goquery.Document, fetchedAt time.Time) []status.Incident {
	var out []status.Incident
	doc.Find(selStatusDay).Each(func(_ int, day *goquery.Selection) {
		day.Find(selIncident).Each(func(_ int, sel *goquery.Selection) {
			if in, ok := p.parseIncident(sel, fetchedAt); ok {
				out = append(out, in)
			}
		})
	})
	return out
}

func (p *Parser) parseIncident(sel *goquery.Selection, fetchedAt time.Time) (status.Incident, bool) {
	title := sel.Find(selIncidentTitle).First()
	if title.Length() == 0 {
		return status.Incident{}, false
	}
	link := title.Find("a").First()

	id := ""
	if href, ok := link.Attr("href"); ok {
		parts := strings.Split(strings.TrimRight(href, "/"), "/")
		id = parts[len(parts)-1]
	}
	name := strings.TrimSpace(link.Text())
	if name == "" {
		name = strings.TrimSpace(title.Text())
	}
	if id == "" {
		// No permalink; fall back to the title so the id is at least stable
		// across polls for the same incident.
		id = slug(name)
	}

	updates := p.parseUpdates(sel, fetchedAt)
	if len(updates) == 0 {
		return status.Incident{}, false
	}

	in := status.Incident{
		ID:        id,
		Title:     name,
		Impact:    impactLevel(title.AttrOr("class", "")),
		Updates:   updates,
		CreatedAt: updates[0].At,
	}
	latest := updates[len(updates)-1]
	in.Status = latest.Status
	if latest.Status == status.IncidentResolved {
		t := latest.At
		in.ResolvedAt = &t
	}
	return in, true
}

// parseUpdates returns the incident timeline sorted ascending by timestamp.
func (p *Parser) parseUpdates(sel *goquery.Selection, fetchedAt time.Time) []status.IncidentUpdate {
	var out []status.IncidentUpdate
	sel.Find(selIncidentUpdate).Each(func(_ int, upd *goquery.Selection) {
		strong := strings.TrimSpace(upd.Find("strong").First().Text())
		if strong == "" {
			return
		}
		body := strings.TrimSpace(upd.Find(selUpdateMessage).First().Text())
		at := p.parseUpdateTime(upd.Find("small").First(), fetchedAt)
		out = append(out, status.IncidentUpdate{
			Status: incidentStatus(strong),
			Body:   body,
			At:     at,
		})
	})
	sortUpdates(out)
	return out
}

func sortUpdates(updates []status.IncidentUpdate) {
	// Insertion sort; timelines are short and usually already ordered.
	for i := 1; i < len(updates); i++ {
		for j := i; j > 0 && updates[j].At.Before(updates[j-1].At); j-- {
			updates[j], updates[j-1] = updates[j-1], updates[j]
		}
	}
}

func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

func componentState(raw string) status.ComponentState {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "maintenance"):
		return status.StateMaintenance
	// "partial outage" is degraded, so the partial check must win over
	// the outage one.
	case strings.Contains(s, "degraded"), strings.Contains(s, "partial"):
		return status.StateDegraded
	case strings.Contains(s, "outage"):
		return status.StateOutage
	default:
		return status.StateOperational
	}
}

func classLevel(classes string) status.ComponentState {
	s := strings.ToLower(classes)
	switch {
	case strings.Contains(s, "outage"):
		return status.StateOutage
	case strings.Contains(s, "degraded"):
		return status.StateDegraded
	case strings.Contains(s, "maintenance"):
		return status.StateMaintenance
	default:
		return status.StateOperational
	}
}

func impactLevel(classes string) status.Impact {
	s := strings.ToLower(classes)
	switch {
	case strings.Contains(s, "impact-critical"):
		return status.ImpactCritical
	case strings.Contains(s, "impact-major"):
		return status.ImpactMajor
	case strings.Contains(s, "impact-minor"):
		return status.ImpactMinor
	default:
		return status.ImpactNone
	}
}

func incidentStatus(raw string) status.IncidentStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "resolved", "completed":
		return status.IncidentResolved
	case "monitoring":
		return status.IncidentMonitoring
	case "identified":
		return status.IncidentIdentified
	default:
		return status.IncidentInvestigating
	}
}
