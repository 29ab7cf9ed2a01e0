package msgfmt

import "unicode/utf8"

// MaxMessageRunes is a conservative cap for a single Telegram message
// (the hard limit is 4096 UTF-16 code units; plain-rune counting plus
// headroom for markup keeps us under it).
const MaxMessageRunes = 3800

// TruncRunes returns s truncated to at most n runes.
// It appends an ellipsis "…" when truncated.
func TruncRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	cut := 0
	for i, r := range s {
		count++
		if count == n {
			cut = i + utf8.RuneLen(r)
			continue
		}
		if count > n {
			if cut <= 0 {
				cut = i
			}
			return s[:cut] + "…"
		}
	}
	return s
}

// Clamp truncates a finished message to the sendable cap.
func Clamp(s string) string { return TruncRunes(s, MaxMessageRunes) }
