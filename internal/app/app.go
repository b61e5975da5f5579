package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/clipdoc/internal/broker"
	"github.com/MrSnakeDoc/clipdoc/internal/clipboard"
	"github.com/MrSnakeDoc/clipdoc/internal/config"
	"github.com/MrSnakeDoc/clipdoc/internal/dedup"
	"github.com/MrSnakeDoc/clipdoc/internal/delivery"
	"github.com/MrSnakeDoc/clipdoc/internal/docs"
	"github.com/MrSnakeDoc/clipdoc/internal/httpserver"
	"github.com/MrSnakeDoc/clipdoc/internal/httpserver/deps"
	"github.com/MrSnakeDoc/clipdoc/internal/httpserver/mw"
	"github.com/MrSnakeDoc/clipdoc/internal/logger"
	"github.com/MrSnakeDoc/clipdoc/internal/messaging"
	"github.com/MrSnakeDoc/clipdoc/internal/notify"
	"github.com/MrSnakeDoc/clipdoc/internal/observer"
	"github.com/MrSnakeDoc/clipdoc/internal/redis"
	"github.com/MrSnakeDoc/clipdoc/internal/scheduler"
	"github.com/MrSnakeDoc/clipdoc/internal/session"
	"github.com/MrSnakeDoc/clipdoc/internal/store"
	"github.com/MrSnakeDoc/clipdoc/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/clipdoc/internal/store/redis"
	"github.com/MrSnakeDoc/clipdoc/internal/store/sqlite"
	"github.com/MrSnakeDoc/clipdoc/internal/tabs"
	"github.com/MrSnakeDoc/clipdoc/internal/utils"
	"github.com/MrSnakeDoc/clipdoc/internal/version"
)

// App is the clipdoc daemon: the delivery owner, its pollers and the
// control API.
type App struct {
	cfg        *config.Config
	logger     logger.Logger
	store      store.Store
	session    *session.Session
	background *delivery.Background
	contexts   *observer.Registry
	restorer   *scheduler.SessionRestorer
	watcher    *scheduler.ClipboardWatcher
	clipPoller *scheduler.Poller // nil when the watcher is disabled
	pagePoller *scheduler.Poller
	server     *httpserver.Server
}

// Option overrides a component, mostly for tests.
type Option func(*options)

type options struct {
	reader clipboard.Reader
	broker session.TokenBroker
}

// WithClipboard replaces the OS clipboard.
func WithClipboard(r clipboard.Reader) Option {
	return func(o *options) { o.reader = r }
}

// WithTokenBroker replaces the Google OAuth broker.
func WithTokenBroker(b session.TokenBroker) Option {
	return func(o *options) { o.broker = b }
}

// New wires every component. The store is opened here so that a bad
// backend fails before anything starts.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	st, err := openStore(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	if o.broker == nil {
		o.broker = broker.NewGoogle(broker.Options{
			ClientID:        cfg.OAuthClientID,
			ClientSecret:    cfg.OAuthClientSecret,
			Scopes:          cfg.OAuthScopes,
			CallbackTimeout: cfg.OAuthCallbackTimeout,
		}, broker.NewTokenCache(cfg.TokenCachePath), loggerClient.With(logger.String("component", "broker")))
	}
	if o.reader == nil {
		if !clipboard.Supported() {
			loggerClient.Warn("no clipboard utility found, clipboard polling will find nothing")
		}
		o.reader = clipboard.NewSystem()
	}

	sess := session.New(o.broker, st, loggerClient.With(logger.String("component", "session")))

	// delivered record shared by the owner and the startup restore
	dd := dedup.New(map[dedup.Scope]time.Duration{
		dedup.ScopeBackground: cfg.DedupBackgroundWindow,
		dedup.ScopeDelivered:  cfg.DedupDeliveredWindow,
	})

	events := notify.NewBroadcaster[messaging.Event](notify.DefaultBuffer)
	tracker := tabs.NewTracker()

	pipeline := delivery.NewPipeline(
		docs.NewClient(cfg.DocsBaseURL, cfg.DocsTimeout),
		sess,
		loggerClient.With(logger.String("component", "pipeline")),
	)
	bg := delivery.NewBackground(pipeline, sess, st, tracker, dd, events,
		loggerClient.With(logger.String("component", "background")))

	contexts := observer.NewRegistry(bg, bg, st, o.reader, events, observer.Options{
		SettleDelay:  cfg.SettleDelay,
		CopyThrottle: cfg.CopyThrottle,
		DedupWindow:  cfg.DedupPageWindow,
		NotifyTTL:    cfg.NotifyTTL,
	}, loggerClient.With(logger.String("component", "observer")))

	a := &App{
		cfg:        cfg,
		logger:     loggerClient,
		store:      st,
		session:    sess,
		background: bg,
		contexts:   contexts,
		restorer:   scheduler.NewSessionRestorer(sess, st, dd, loggerClient),
	}

	var pollTrigger chan struct{}
	if cfg.ClipboardWatch {
		pollTrigger = make(chan struct{}, 1)
		a.watcher = scheduler.NewClipboardWatcher(o.reader, bg, loggerClient.With(logger.String("component", "watcher")))
		a.clipPoller = scheduler.NewPoller("clipboard", cfg.ClipboardPollInterval, a.watcher.Check, pollTrigger, loggerClient)
	} else {
		loggerClient.Info("background clipboard watcher disabled")
	}

	a.pagePoller = scheduler.NewPoller("contexts", cfg.PagePollInterval, func(ctx context.Context) error {
		contexts.PollAll(ctx)
		return nil
	}, nil, loggerClient)

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		RequestTimeout: cfg.RequestTimeout,
		RateLimit: mw.RateLimitConfig{
			Burst:             cfg.RateLimitBurst,
			RefillPerIPPerMin: cfg.RateLimitRefillPerMin,
			MaxEntries:        1024,
			TrustProxy:        cfg.TrustProxy,
		},
		Owner:       bg,
		Deliveries:  bg,
		Session:     sess,
		Store:       st,
		Tabs:        tracker,
		Contexts:    contexts,
		Events:      events,
		PollTrigger: pollTrigger,
	}
	a.server = httpserver.New(cfg, loggerClient, d)

	return a, nil
}

// openStore connects the configured settings backend.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreRedis:
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.Dial(ctx, redis.Options{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return redisstore.NewStore(client), nil

	case config.StoreSQLite:
		st, err := sqlite.Open(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		log.Info("sqlite store opened", logger.String("path", st.Path()))
		return st, nil

	case config.StoreMemory:
		log.Warn("memory store selected, settings are lost on exit")
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// Run restores state, starts the pollers and serves until ctx is done or
// the server fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("Starting clipdoc %s on %s", version.String(), a.cfg.ListenAddr)

	defer utils.CloseLogged(a.store, "store", a.logger)

	if err := a.restorer.Restore(ctx); err != nil {
		// a broken session is not fatal: the user can authorize again
		a.logger.Warn("failed to restore state", logger.Error(err))
	}

	if a.clipPoller != nil {
		if a.cfg.ClipboardSkipInitial {
			a.watcher.Prime(ctx)
		}
		a.clipPoller.Start(ctx)
		a.logger.Info("clipboard watcher started",
			logger.Duration("interval", a.cfg.ClipboardPollInterval))
	}
	a.pagePoller.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.server.Start(gctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down gracefully...")

		if a.clipPoller != nil {
			a.clipPoller.Stop()
		}
		a.pagePoller.Stop()
		a.contexts.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := a.server.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	a.logger.Info("clipdoc stopped cleanly")
	return nil
}
