// Package runtime assembles the bot from its configuration.
package runtime

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/kipper0508/escape-bot/internal/catalog"
	"github.com/kipper0508/escape-bot/internal/config"
	"github.com/kipper0508/escape-bot/internal/daemon"
	"github.com/kipper0508/escape-bot/internal/errors"
	"github.com/kipper0508/escape-bot/internal/logging"
	"github.com/kipper0508/escape-bot/internal/metrics"
	"github.com/kipper0508/escape-bot/internal/model"
	"github.com/kipper0508/escape-bot/internal/notify"
	"github.com/kipper0508/escape-bot/internal/parser"
	"github.com/kipper0508/escape-bot/internal/scheduler"
	"github.com/kipper0508/escape-bot/internal/server"
	"github.com/kipper0508/escape-bot/internal/service"
	"github.com/kipper0508/escape-bot/internal/storage"
	"github.com/kipper0508/escape-bot/internal/storage/sqlstore"
	"github.com/kipper0508/escape-bot/internal/summarize"
)

// MemoryPath selects an in-memory badger store.
const MemoryPath = ":memory:"

// Store is everything the bot needs from an event store.
type Store interface {
	service.EventStore
	scheduler.ReminderStore
	Get(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context) ([]*model.Event, error)
	Ping(ctx context.Context) error
	Close() error
}

// badgerStore ties the repo to the database it must close.
type badgerStore struct {
	*storage.EventRepo
	db *storage.DB
}

func (s badgerStore) Close() error { return s.db.Close() }

// OpenStore opens the configured event store.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := sqlstore.Open(ctx, cfg.URL)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open sqlite store")
		}
		return s, nil
	case config.DriverBadger, "":
		opts := storage.Options{Path: cfg.Path}
		switch cfg.Path {
		case MemoryPath:
			opts = storage.Options{InMemory: true}
		case "":
			opts.Path = storage.DefaultPath()
		}
		db, err := storage.Open(opts)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open badger store at %s", opts.Path)
		}
		return badgerStore{EventRepo: storage.NewEventRepo(db), db: db}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// App holds the wired components.
type App struct {
	Config   *config.RuntimeConfig
	Version  string
	Location *time.Location

	Store      Store
	Catalog    *catalog.Client
	Summarizer *summarize.Summarizer
	LINE       *notify.LineClient
	Metrics    *metrics.Metrics
	Parser     *parser.Parser
	Service    *service.Service
	Health     *daemon.HealthChecker
}

// New opens the store and builds every component from cfg.
func New(ctx context.Context, cfg *config.RuntimeConfig, version string) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	cat := catalog.New(catalog.Config{
		BaseURL:   cfg.Catalog.BaseURL,
		ReviewURL: cfg.Catalog.ReviewURL,
		Timeout:   cfg.Catalog.Timeout,
		Rate:      cfg.Catalog.Rate,
	})
	sum := summarize.New(summarize.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
	}, cat)
	m := metrics.New()

	svc := service.New(store, cat, sum, service.Options{
		Location:       loc,
		RemindBefore:   cfg.Bot.RemindBefore,
		ConflictWindow: cfg.Bot.ConflictWindow,
		Trigger:        cfg.Bot.Trigger,
	}, service.WithMetrics(m))

	health := daemon.NewHealthChecker(version)
	health.AddCheck("store", store.Ping)
	health.AddCheck(catalog.ServiceName, cat.Check)
	health.AddCheck(summarize.ServiceName, sum.Check)

	return &App{
		Config:     cfg,
		Version:    version,
		Location:   loc,
		Store:      store,
		Catalog:    cat,
		Summarizer: sum,
		LINE:       notify.NewLineClient(cfg.LINE.ChannelAccessToken),
		Metrics:    m,
		Parser:     parser.New(parser.WithTrigger(cfg.Bot.Trigger), parser.WithLocation(loc)),
		Service:    svc,
		Health:     health,
	}, nil
}

// ReminderChecker builds the reminder scan over the store and LINE push.
func (a *App) ReminderChecker() *scheduler.ReminderChecker {
	c := scheduler.NewReminderChecker(a.Store, notify.NewDispatcher(a.LINE, 4),
		func(e *model.Event) string { return service.FormatReminder(e, a.Location) })
	c.SetMetrics(a.Metrics)
	return c
}

// Scheduler builds the cron scheduler running the reminder scan.
func (a *App) Scheduler() *scheduler.Scheduler {
	return scheduler.NewScheduler(a.Config.Scheduler.ReminderCron, a.ReminderChecker())
}

// Server builds the webhook server.
func (a *App) Server() *server.Server {
	return server.New(server.Config{
		ChannelSecret: a.Config.LINE.ChannelSecret,
		GroupOnly:     a.Config.Bot.GroupOnly,
		Version:       a.Version,
	}, a.Parser, a.Service, a.LINE, a.Health, a.Metrics)
}

// Daemon builds the process that serves the webhook and runs the scheduler.
func (a *App) Daemon() *daemon.Daemon {
	return daemon.New(daemon.Config{
		Addr:            net.JoinHostPort("", a.Config.Server.Port),
		ShutdownTimeout: a.Config.Server.ShutdownTimeout,
	}, a.Server().Handler(), a.Scheduler())
}

// Close releases the store.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	if err := a.Store.Close(); err != nil {
		logging.Error("failed to close store", logging.KeyError, err)
		return err
	}
	return nil
}
