//go:build sqlite
// +build sqlite

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"statuswatch/internal/status"
	"statuswatch/internal/transport"
	"statuswatch/pkg/logx"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS message_refs (
	name       TEXT PRIMARY KEY,
	chat_id    INTEGER NOT NULL,
	thread_id  INTEGER NOT NULL DEFAULT 0,
	message_id INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshots (
	id       INTEGER PRIMARY KEY CHECK (id = 1),
	data     TEXT NOT NULL,
	saved_at INTEGER NOT NULL
);
`

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}

	return &sqliteStore{db: db, log: log}, nil
}

func (s *sqliteStore) Close() error { return s.db.Close() }

func (s *sqliteStore) PutMessageRef(ctx context.Context, name string, ref transport.MessageRef) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO message_refs (name, chat_id, thread_id, message_id) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET chat_id=excluded.chat_id, thread_id=excluded.thread_id, message_id=excluded.message_id`,
		name, ref.ChatID, ref.ThreadID, ref.MessageID)
	return err
}

func (s *sqliteStore) GetMessageRef(ctx context.Context, name string) (transport.MessageRef, bool, error) {
	var ref transport.MessageRef
	row := s.db.QueryRowContext(ctx,
		`SELECT chat_id, thread_id, message_id FROM message_refs WHERE name = ?`, name)
	err := row.Scan(&ref.ChatID, &ref.ThreadID, &ref.MessageID)
	if errors.Is(err, sql.ErrNoRows) {
		return transport.MessageRef{}, false, nil
	}
	if err != nil {
		return transport.MessageRef{}, false, err
	}
	return ref, true, nil
}

func (s *sqliteStore) PutSnapshot(ctx context.Context, snap *status.Snapshot) error {
	if snap == nil {
		return nil
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, data, saved_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data=excluded.data, saved_at=excluded.saved_at`,
		string(b), time.Now().Unix())
	return err
}

func (s *sqliteStore) GetSnapshot(ctx context.Context) (*status.Snapshot, bool, error) {
	var data string
	row := s.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE id = 1`)
	err := row.Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var snap status.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		s.log.Warn("stored snapshot unreadable; ignoring", logx.Err(err))
		return nil, false, nil
	}
	return &snap, true, nil
}
