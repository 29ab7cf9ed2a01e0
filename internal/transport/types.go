// Package transport defines the chat-platform boundary: the engine side only
// ever sees these types, never a concrete client.
package transport

import "context"

// ChatTarget addresses a chat (and optionally a forum topic thread).
type ChatTarget struct {
	ChatID   int64
	ThreadID int
}

// MessageRef identifies a message we previously sent.
type MessageRef struct {
	ChatID    int64  `json:"chat_id"`
	ThreadID  int    `json:"thread_id,omitempty"`
	MessageID int    `json:"message_id"`
	Token     string `json:"token,omitempty"` // platform-specific edit handle, if any
}

// SendOptions tweaks a single send/edit.
type SendOptions struct {
	ParseMode      string
	DisablePreview bool
	Silent         bool
}

// Adapter is the minimal chat surface the dashboard and notifier need.
// Implementations must be safe for concurrent use.
type Adapter interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
	EditText(ctx context.Context, ref MessageRef, text string, opt *SendOptions) error
	Pin(ctx context.Context, ref MessageRef) error
}

// ErrNotFound is reported by EditText when the referenced message no longer
// exists, via errors.Is.
type notFoundError struct{}

func (notFoundError) Error() string { return "message not found" }

var ErrNotFound error = notFoundError{}
