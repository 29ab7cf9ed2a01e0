// Package app wires the status watcher together: config, logging,
// transport, fetch pipeline, poll engine, notifier, dashboard and
// scheduler.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"statuswatch/internal/config"
	"statuswatch/internal/dashboard"
	"statuswatch/internal/dedup"
	"statuswatch/internal/engine"
	"statuswatch/internal/fetch"
	"statuswatch/internal/notifier"
	"statuswatch/internal/render"
	"statuswatch/internal/scheduler"
	"statuswatch/internal/status/statuspage"
	"statuswatch/internal/storage"
	"statuswatch/internal/transport"
	"statuswatch/internal/transport/telegram"
	"statuswatch/pkg/logx"
)

type App struct {
	cfgm *config.Manager

	logs *logx.Service
	log  logx.Logger

	adapter *telegram.Adapter
	store   storage.Store

	engine *engine.Engine
	notif  *notifier.Service
	dash   *dashboard.Service
	sched  *scheduler.Service

	target transport.ChatTarget

	cancel context.CancelFunc
	wg     sync.WaitGroup
	sub    chan *config.Config
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	logs, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	cfgm.SetValidator(func(_ context.Context, c *config.Config) error {
		return c.Validate()
	})

	reqTimeout, _ := config.Duration("telegram.request_timeout", cfg.Telegram.RequestTimeout)
	adapter, err := telegram.New(telegram.Config{
		Token:          cfg.Telegram.Token,
		RequestTimeout: reqTimeout,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		logs.Close()
		return nil, fmt.Errorf("telegram adapter: %w", err)
	}

	var store storage.Store
	if sc := cfg.Storage; sc != nil {
		busy, _ := config.Duration("storage.busy_timeout", sc.BusyTimeout)
		store, err = storage.Open(storage.Config{
			Driver:      sc.Driver,
			Path:        sc.Path,
			BusyTimeout: busy,
		}, log.With(logx.String("comp", "storage")))
		if err != nil {
			logs.Close()
			return nil, fmt.Errorf("open storage: %w", err)
		}
	}

	loc := time.UTC
	if tz := cfg.Status.PageTimezone; tz != "" {
		loc, _ = time.LoadLocation(tz)
	}
	src := &statuspage.Source{
		URL:       cfg.Status.URL,
		UserAgent: cfg.Fetch.UserAgent,
		Parser: &statuspage.Parser{
			Components: cfg.Status.Components,
			Location:   loc,
		},
		Log: log.With(logx.String("comp", "fetch")),
	}

	timeout, _ := config.Duration("fetch.timeout", cfg.Fetch.Timeout)
	base, _ := config.Duration("fetch.base_backoff", cfg.Fetch.BaseBackoff)
	maxBackoff, _ := config.Duration("fetch.max_backoff", cfg.Fetch.MaxBackoff)
	client, err := fetch.New(fetch.Config{
		Timeout:     timeout,
		MaxRetries:  cfg.Fetch.MaxRetries,
		BaseBackoff: base,
		MaxBackoff:  maxBackoff,
		Jitter:      cfg.Fetch.Jitter,
	}, src, log.With(logx.String("comp", "fetch")))
	if err != nil {
		logs.Close()
		return nil, err
	}

	window, _ := config.Duration("dedup.expiry_window", cfg.Dedup.ExpiryWindow)
	cache := dedup.New(window, cfg.Dedup.MaxEntries)
	eng := engine.New(client, cache, window, log.With(logx.String("comp", "engine")))

	notif := notifier.New(notifierConfig(cfg.Notifier), adapter, log.With(logx.String("comp", "notifier")))

	target := transport.ChatTarget{
		ChatID:   cfg.Telegram.ChatID,
		ThreadID: cfg.Telegram.ThreadID,
	}
	dash := dashboard.New(adapter, store, target, log.With(logx.String("comp", "dashboard")))

	a := &App{
		cfgm:    cfgm,
		logs:    logs,
		log:     log,
		adapter: adapter,
		store:   store,
		engine:  eng,
		notif:   notif,
		dash:    dash,
		target:  target,
	}

	interval, _ := config.Duration("status.check_interval", cfg.Status.CheckInterval)
	sched, err := scheduler.New(interval, a.poll, log.With(logx.String("comp", "scheduler")))
	if err != nil {
		logs.Close()
		return nil, err
	}
	a.sched = sched
	return a, nil
}

// notifierConfig maps the optional config section onto the service config.
// A missing section means enabled with defaults.
func notifierConfig(nc *config.NotifierConfig) notifier.Config {
	if nc == nil {
		return notifier.Config{Enabled: true}
	}
	base, _ := config.Duration("notifier.retry_base", nc.RetryBase)
	maxDelay, _ := config.Duration("notifier.retry_max_delay", nc.RetryMaxDelay)
	return notifier.Config{
		Enabled:       nc.Enabled,
		Workers:       nc.Workers,
		QueueSize:     nc.QueueSize,
		RatePerSec:    nc.RatePerSec,
		RetryMax:      nc.RetryMax,
		RetryBase:     base,
		RetryMaxDelay: maxDelay,
	}
}

func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	// seed from the persisted snapshot so a restart does not re-announce
	// everything already reported
	if a.store != nil {
		snap, ok, err := a.store.GetSnapshot(runCtx)
		if err != nil {
			a.log.Warn("restore snapshot failed", logx.Err(err))
		} else if ok {
			a.engine.Seed(snap)
			a.log.Info("state restored", logx.Time("fetched_at", snap.FetchedAt))
		}
	}

	a.notif.Start(runCtx)
	if err := a.sched.Start(runCtx); err != nil {
		cancel()
		return err
	}

	a.sub = a.cfgm.Subscribe(8)
	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		_ = a.cfgm.Watch(runCtx)
	}()
	go func() {
		defer a.wg.Done()
		a.reloadLoop(runCtx)
	}()

	a.log.Info("started")
	return nil
}

// poll runs one cycle: fetch+diff, refresh the dashboard, fan out events.
func (a *App) poll(ctx context.Context) {
	out := a.engine.Poll(ctx)
	switch out.Status {
	case engine.PollFetchFailed:
		a.log.Warn("poll failed", logx.String("run_id", out.RunID), logx.Err(out.Err))
		return
	case engine.PollNoChange:
		a.log.Debug("poll complete", logx.String("run_id", out.RunID))
	case engine.PollEmitted:
		a.log.Info("poll emitted events",
			logx.String("run_id", out.RunID),
			logx.Int("events", len(out.Events)))
	}

	if err := a.dash.Sync(ctx, out.Snapshot); err != nil {
		a.log.Warn("dashboard sync failed", logx.String("run_id", out.RunID), logx.Err(err))
	}
	if a.store != nil {
		if err := a.store.PutSnapshot(ctx, out.Snapshot); err != nil {
			a.log.Warn("persist snapshot failed", logx.String("run_id", out.RunID), logx.Err(err))
		}
	}

	for _, ev := range out.Events {
		err := a.notif.Notify(ctx, notifier.Notification{
			Target:   a.target,
			Text:     render.Event(ev),
			Priority: render.Priority(ev),
		})
		if err != nil {
			a.log.Warn("notify failed",
				logx.String("run_id", out.RunID),
				logx.String("event", ev.String()),
				logx.Err(err))
		}
	}
}

// reloadLoop applies hot-reloadable settings from config updates. Fetch and
// status-page settings are fixed at startup; changing those needs a restart.
func (a *App) reloadLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-a.sub:
			if !ok {
				return
			}
			// coalesce bursts, keep only the newest
			for {
				select {
				case newer, ok := <-a.sub:
					if !ok {
						return
					}
					if newer != nil {
						cfg = newer
					}
				default:
					goto APPLY
				}
			}
		APPLY:
			a.applyConfig(cfg)
		}
	}
}

func (a *App) applyConfig(cfg *config.Config) {
	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	a.notif.Apply(notifierConfig(cfg.Notifier))

	interval, err := config.Duration("status.check_interval", cfg.Status.CheckInterval)
	if err == nil {
		if err := a.sched.Apply(interval); err != nil {
			a.log.Warn("apply check_interval failed", logx.Err(err))
		}
	}

	a.log.Info("config applied")
}

func (a *App) Stop(ctx context.Context) error {
	a.log.Info("stopping")
	if a.cancel != nil {
		a.cancel()
	}

	a.sched.Stop(ctx)
	a.notif.Stop(ctx)
	a.cfgm.Unsubscribe(a.sub)
	a.wg.Wait()

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("close storage failed", logx.Err(err))
		}
	}
	return a.logs.Close()
}
