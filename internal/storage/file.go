package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"statuswatch/internal/status"
	"statuswatch/internal/transport"
	"statuswatch/pkg/logx"
)

// fileStore keeps all state in one JSON file, rewritten atomically
// (tmp + rename) on every mutation. State is tiny (one snapshot plus a
// handful of message refs), so full rewrites are cheap.
type fileStore struct {
	log  logx.Logger
	path string

	mu    sync.Mutex
	state fileState
}

type fileState struct {
	MessageRefs map[string]transport.MessageRef `json:"message_refs,omitempty"`
	Snapshot    *status.Snapshot                `json:"snapshot,omitempty"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	s := &fileStore{log: log, path: path}

	// Load existing state best-effort; a corrupt file starts fresh.
	if b, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(b, &s.state); err != nil {
			log.Warn("state file unreadable; starting fresh", logx.String("path", path), logx.Err(err))
			s.state = fileState{}
		}
	}
	if s.state.MessageRefs == nil {
		s.state.MessageRefs = map[string]transport.MessageRef{}
	}
	return s, nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) PutMessageRef(ctx context.Context, name string, ref transport.MessageRef) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.MessageRefs[name] = ref
	return s.flushLocked()
}

func (s *fileStore) GetMessageRef(ctx context.Context, name string) (transport.MessageRef, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.state.MessageRefs[name]
	return ref, ok, nil
}

func (s *fileStore) PutSnapshot(ctx context.Context, snap *status.Snapshot) error {
	_ = ctx
	if snap == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Snapshot = snap
	return s.flushLocked()
}

func (s *fileStore) GetSnapshot(ctx context.Context) (*status.Snapshot, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Snapshot == nil {
		return nil, false, nil
	}
	return s.state.Snapshot, true, nil
}

func (s *fileStore) flushLocked() error {
	b, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
