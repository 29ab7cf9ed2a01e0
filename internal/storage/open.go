package storage

import (
	"context"
	"errors"
	"strings"

	"statuswatch/internal/status"
	"statuswatch/internal/transport"
	"statuswatch/pkg/logx"
)

// Store is the minimal persistence API used by the app.
type Store interface {
	PutMessageRef(ctx context.Context, name string, ref transport.MessageRef) error
	GetMessageRef(ctx context.Context, name string) (ref transport.MessageRef, ok bool, err error)
	PutSnapshot(ctx context.Context, snap *status.Snapshot) error
	GetSnapshot(ctx context.Context) (snap *status.Snapshot, ok bool, err error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
