// Package dashboard maintains the single pinned status-overview message:
// edit it in place each poll, recreate it if it went missing, pin it when
// fresh, and remember its ref across restarts through storage.
package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"statuswatch/internal/render"
	"statuswatch/internal/status"
	"statuswatch/internal/storage"
	"statuswatch/internal/transport"
	"statuswatch/pkg/logx"
)

type Service struct {
	adapter transport.Adapter
	store   storage.Store // may be nil (persistence disabled)
	target  transport.ChatTarget
	log     logx.Logger
	now     func() time.Time

	mu  sync.Mutex
	ref *transport.MessageRef
}

func New(adapter transport.Adapter, store storage.Store, target transport.ChatTarget, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		adapter: adapter,
		store:   store,
		target:  target,
		log:     log,
		now:     time.Now,
	}
	if store != nil {
		if ref, ok, err := store.GetMessageRef(context.Background(), storage.DashboardRef); err == nil && ok {
			s.ref = &ref
			log.Debug("dashboard message ref restored", logx.Int("message_id", ref.MessageID))
		}
	}
	return s
}

// Sync renders the snapshot and updates the pinned message. A missing
// message (deleted by an admin, lost ref) is recreated and re-pinned.
func (s *Service) Sync(ctx context.Context, snap *status.Snapshot) error {
	if snap == nil {
		return nil
	}
	text := render.Dashboard(snap, s.now())
	opt := &transport.SendOptions{ParseMode: "HTML", DisablePreview: true, Silent: true}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ref != nil {
		err := s.adapter.EditText(ctx, *s.ref, text, opt)
		if err == nil {
			return nil
		}
		if !errors.Is(err, transport.ErrNotFound) {
			return err
		}
		s.log.Warn("dashboard message gone; recreating", logx.Int("message_id", s.ref.MessageID))
		s.ref = nil
	}

	ref, err := s.adapter.SendText(ctx, s.target, text, opt)
	if err != nil {
		return err
	}
	if err := s.adapter.Pin(ctx, ref); err != nil {
		// Not fatal: the dashboard still works unpinned.
		s.log.Warn("pin failed", logx.Int("message_id", ref.MessageID), logx.Err(err))
	}
	s.ref = &ref
	s.log.Info("dashboard message created", logx.Int("message_id", ref.MessageID))

	if s.store != nil {
		if err := s.store.PutMessageRef(ctx, storage.DashboardRef, ref); err != nil {
			s.log.Warn("persisting dashboard ref failed", logx.Err(err))
		}
	}
	return nil
}
