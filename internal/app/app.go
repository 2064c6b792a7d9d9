package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"YourStockNews/internal/api"
	"YourStockNews/internal/config"
	"YourStockNews/internal/domain"
	"YourStockNews/internal/infrastructure/amqp"
	"YourStockNews/internal/infrastructure/llm"
	"YourStockNews/internal/infrastructure/scheduler"
	"YourStockNews/internal/infrastructure/storage"
	"YourStockNews/internal/infrastructure/telegram"
	"YourStockNews/internal/infrastructure/tokenstore"
	"YourStockNews/internal/logging"
	"YourStockNews/internal/notify"
	"YourStockNews/internal/ports"
	"YourStockNews/internal/session"
	"YourStockNews/internal/usecase"
)

// Application wires configs to the API client and use cases.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	client  *api.Client
	expired chan struct{}
	closers []io.Closer
}

// New builds the session store and the API client. Expensive adapters such
// as the archive are created on demand by the commands that need them.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, opts ...api.Option) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	a := &Application{cfg: cfg, logger: baseLogger, expired: make(chan struct{}, 1)}

	store, err := a.tokenStore(ctx)
	if err != nil {
		return nil, err
	}

	options := []api.Option{
		api.WithLogger(baseLogger.With("component", "api")),
		api.WithSessionExpiredHook(a.onSessionExpired),
	}
	a.client = api.New(cfg.API.BaseURL, session.New(store), append(options, opts...)...)
	return a, nil
}

// Client exposes the configured backend client.
func (a *Application) Client() *api.Client {
	return a.client
}

// Config returns the resolved configuration.
func (a *Application) Config() config.Config {
	return a.cfg
}

// SessionExpired is signalled once a 401 tore the session down.
func (a *Application) SessionExpired() <-chan struct{} {
	return a.expired
}

// WithTimeout bounds one command by the configured request timeout.
func (a *Application) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.API.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.cfg.API.RequestTimeout)
}

// Dashboard returns the landing-screen loader.
func (a *Application) Dashboard() *usecase.Dashboard {
	return usecase.NewDashboard(a.client)
}

// Watcher returns a scan watcher polling at the configured interval.
func (a *Application) Watcher() *usecase.ScanWatcher {
	return usecase.NewScanWatcher(a.client, a.cfg.Watch.PollInterval, a.logger.With("component", "watcher"))
}

// Pipeline assembles the alert pipeline with every configured channel.
func (a *Application) Pipeline() (*usecase.AlertPipeline, error) {
	archive, err := a.archive()
	if err != nil {
		return nil, err
	}

	notifiers, err := a.notifiers()
	if err != nil {
		return nil, err
	}

	var events ports.EventPublisher
	if a.cfg.Notifications.AMQP.URL != "" {
		events = amqp.NewPublisher(a.cfg.Notifications.AMQP.URL, a.cfg.Notifications.AMQP.Queue,
			a.logger.With("component", "amqp"))
	}

	var summarizer ports.Summarizer
	if a.cfg.ChatGPT.APIKey != "" {
		summarizer = llm.NewChatGPTClient(a.cfg.ChatGPT)
	}

	severities := make([]domain.Severity, 0, len(a.cfg.Watch.Severities))
	for _, raw := range a.cfg.Watch.Severities {
		sev := domain.Severity(raw)
		if !sev.Valid() {
			return nil, fmt.Errorf("unknown severity %q in watch.severities", raw)
		}
		severities = append(severities, sev)
	}

	return usecase.NewAlertPipeline(usecase.PipelineDeps{
		API:        a.client,
		Watcher:    a.Watcher(),
		Archive:    archive,
		Notifiers:  notifiers,
		Events:     events,
		Summarizer: summarizer,
		Logger:     a.logger.With("component", "pipeline"),
		Severities: severities,
		PageSize:   a.cfg.Watch.PageSize,
		MarkRead:   a.cfg.Watch.MarkRead,
	}), nil
}

// RunOnce executes the pipeline for the given watchlists (all when empty).
func (a *Application) RunOnce(ctx context.Context, ids []int64) ([]usecase.RunReport, error) {
	pipeline, err := a.Pipeline()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		ids = a.cfg.Watch.Watchlists
	}
	return pipeline.RunAll(ctx, ids)
}

// Watch runs the pipeline on the configured interval until ctx ends or the
// session expires.
func (a *Application) Watch(ctx context.Context) error {
	pipeline, err := a.Pipeline()
	if err != nil {
		return err
	}

	driver := scheduler.NewIntervalScheduler(a.cfg.Watch.Interval)
	sched := usecase.NewScheduler(driver, pipeline, a.cfg.Watch.Watchlists, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("watching", "interval", a.cfg.Watch.Interval, "watchlists", a.cfg.Watch.Watchlists)

	var result error
	select {
	case <-ctx.Done():
	case <-a.expired:
		result = api.ErrUnauthorized
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		a.logger.Warn("scheduler stop", "error", err)
	}
	return result
}

// RecentAlerts lists the latest archived deliveries.
func (a *Application) RecentAlerts(ctx context.Context, limit int) ([]domain.DeliveredAlert, error) {
	archive, err := a.archive()
	if err != nil {
		return nil, err
	}
	return archive.Recent(ctx, limit)
}

// Close releases every adapter opened by the application.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *Application) onSessionExpired(ctx context.Context) {
	a.logger.WarnContext(ctx, "session expired, run `stocknews login` to sign in again")
	select {
	case a.expired <- struct{}{}:
	default:
	}
}

func (a *Application) tokenStore(ctx context.Context) (ports.TokenStore, error) {
	switch a.cfg.Session.Store {
	case config.StoreMemory:
		return session.NewMemoryStore(), nil
	case config.StoreFile, "":
		return tokenstore.NewFileStore(a.cfg.Session.File), nil
	case config.StoreRedis:
		redisCfg := a.cfg.Session.Redis
		store, err := tokenstore.NewRedisStore(ctx, tokenstore.RedisOptions{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
			Prefix:   redisCfg.Prefix,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", a.cfg.Session.Store)
	}
}

func (a *Application) archive() (*storage.SQLiteArchive, error) {
	archive, err := storage.Open(a.cfg.Archive.Path)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, archive)
	return archive, nil
}

func (a *Application) notifiers() ([]ports.Notifier, error) {
	registry := notify.NewRegistry()
	registry.Register(notify.NewLogNotifier(a.logger.With("component", "notify.log")))

	tg := a.cfg.Notifications.Telegram
	if tg.BotToken != "" && tg.ChatID != "" {
		registry.Register(telegram.NewNotifier(tg.BotToken, tg.ChatID))
	}

	notifiers, err := registry.Select(a.cfg.Notifications.Channels)
	if err != nil {
		return nil, fmt.Errorf("notifications.channels: %w (available: %v)", err, registry.Names())
	}
	return notifiers, nil
}
