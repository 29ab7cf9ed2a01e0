// Package telegram implements transport.Adapter on top of telebot.
//
// The bot is send-only: statuswatch never long-polls for updates, it only
// pushes dashboard edits and change notifications.
package telegram

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"statuswatch/internal/transport"
	"statuswatch/pkg/logx"
)

type Config struct {
	Token string
	// RequestTimeout bounds a single API call (default 30s).
	RequestTimeout time.Duration
}

type Adapter struct {
	bot *tele.Bot
	log logx.Logger
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Client: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	return &Adapter{bot: b, log: log}, nil
}

func sendOptions(opt *transport.SendOptions, threadID int) *tele.SendOptions {
	out := &tele.SendOptions{ThreadID: threadID}
	if opt == nil {
		return out
	}
	switch strings.ToUpper(opt.ParseMode) {
	case "HTML":
		out.ParseMode = tele.ModeHTML
	case "MARKDOWN":
		out.ParseMode = tele.ModeMarkdown
	}
	out.DisableWebPagePreview = opt.DisablePreview
	out.DisableNotification = opt.Silent
	return out
}

func (a *Adapter) SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return transport.MessageRef{}, err
	}
	msg, err := a.bot.Send(tele.ChatID(to.ChatID), text, sendOptions(opt, to.ThreadID))
	if err != nil {
		return transport.MessageRef{}, err
	}
	return transport.MessageRef{
		ChatID:    to.ChatID,
		ThreadID:  to.ThreadID,
		MessageID: msg.ID,
	}, nil
}

func (a *Adapter) EditText(ctx context.Context, ref transport.MessageRef, text string, opt *transport.SendOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := tele.StoredMessage{
		MessageID: strconv.Itoa(ref.MessageID),
		ChatID:    ref.ChatID,
	}
	_, err := a.bot.Edit(stored, text, sendOptions(opt, ref.ThreadID))
	if err == nil {
		return nil
	}
	// Editing a message to its current text is a 400 "message is not
	// modified"; the message already reads as requested, so that is success.
	if isNotModified(err) {
		return nil
	}
	if isNotFound(err) {
		return transport.ErrNotFound
	}
	return err
}

func (a *Adapter) Pin(ctx context.Context, ref transport.MessageRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := tele.StoredMessage{
		MessageID: strconv.Itoa(ref.MessageID),
		ChatID:    ref.ChatID,
	}
	return a.bot.Pin(stored)
}

// isNotFound detects the Bot API's "message to edit not found" family of
// errors without pinning to a specific telebot error value.
func isNotFound(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not found") || strings.Contains(s, "message to edit")
}

func isNotModified(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "not modified")
}
