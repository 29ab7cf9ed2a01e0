package statuspage

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Update timestamps are rendered as text plus <var data-var="..."> fragments,
// e.g.: Nov <var data-var="date">28</var>, <var data-var="year">2024</var>
// <var data-var="time">16:47</var> PST.
var updateTimeLayouts = []string{
	"January 2, 2006 3:04 PM",
	"January 2, 2006 15:04",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006 15:04",
}

// parseUpdateTime reconstructs the update timestamp from the <small> element.
// Unparseable or missing fragments fall back to the fetch time so an update
// is never dropped over a date glitch.
func (p *Parser) parseUpdateTime(small *goquery.Selection, fetchedAt time.Time) time.Time {
	if small.Length() == 0 {
		return fetchedAt.UTC()
	}

	text := strings.TrimSpace(small.Text())
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return fetchedAt.UTC()
	}
	month := fields[0]

	day := strings.TrimSpace(small.Find(`var[data-var="date"]`).First().Text())
	clock := strings.TrimSpace(small.Find(`var[data-var="time"]`).First().Text())
	year := strings.TrimSpace(small.Find(`var[data-var="year"]`).First().Text())
	if year == "" {
		year = fetchedAt.Format("2006")
	}
	if day == "" || clock == "" {
		return fetchedAt.UTC()
	}

	raw := month + " " + day + ", " + year + " " + clock
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range updateTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.UTC()
		}
	}
	return fetchedAt.UTC()
}
