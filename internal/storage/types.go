// Package storage is the optional persistence layer. It remembers the
// dashboard message ref and the last successful snapshot across restarts so
// the bot re-baselines quietly instead of replaying a notification storm.
// The diff engine itself never touches storage mid-poll.
package storage

import "time"

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free JSON state file
//   - "sqlite": SQLite database file (build with -tags sqlite)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// DashboardRef is the well-known message-ref name for the pinned dashboard.
const DashboardRef = "dashboard"
