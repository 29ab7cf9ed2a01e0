package statuspage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"statuswatch/internal/status"
	"statuswatch/pkg/logx"
)

// Source fetches and parses one status page over HTTP.
// It performs a single attempt per call; retry policy lives in the caller.
type Source struct {
	URL       string
	UserAgent string
	Parser    *Parser

	// HTTPClient defaults to http.DefaultClient. Per-attempt deadlines are
	// applied through the request context, not the client.
	HTTPClient *http.Client

	Log logx.Logger
}

// Fetch retrieves the page and parses it into a snapshot. Any network error,
// non-2xx response, or unparsable body is returned as an error; the caller
// treats all of them as transient.
func (s *Source) Fetch(ctx context.Context) (*status.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("statuspage: build request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("statuspage: get %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	if !s.Log.IsZero() {
		s.Log.Debug("status page fetched",
			logx.String("url", s.URL),
			logx.Int("code", resp.StatusCode),
			logx.Duration("took", time.Since(start)),
		)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("statuspage: get %s: unexpected status %d", s.URL, resp.StatusCode)
	}

	parser := s.Parser
	if parser == nil {
		parser = &Parser{}
	}
	snap, err := parser.Parse(resp.Body, time.Now())
	if err != nil {
		return nil, err
	}
	return snap, nil
}
