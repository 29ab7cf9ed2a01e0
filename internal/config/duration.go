package config

import (
	"fmt"
	"time"
)

// Duration parses a duration config field. Empty means zero.
func Duration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", field, value)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %q", field, value)
	}
	return d, nil
}

// DurationOr parses a duration field and falls back to def when the field
// is empty. Invalid values still fail.
func DurationOr(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	return Duration(field, value)
}
