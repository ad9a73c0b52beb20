// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/FedericoTs/dora-comply-sub000/internal/alerts"
	"github.com/FedericoTs/dora-comply-sub000/internal/alerts/webhook"
	"github.com/FedericoTs/dora-comply-sub000/internal/config"
	"github.com/FedericoTs/dora-comply-sub000/internal/incidents"
	incidentspostgres "github.com/FedericoTs/dora-comply-sub000/internal/incidents/postgres"
	"github.com/FedericoTs/dora-comply-sub000/internal/pkg/ctxlog"
	"github.com/FedericoTs/dora-comply-sub000/internal/pkg/httputil"
	"github.com/FedericoTs/dora-comply-sub000/internal/pkg/metrics"
	"github.com/FedericoTs/dora-comply-sub000/internal/pkg/postgres"
	"github.com/FedericoTs/dora-comply-sub000/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const dbMetricsInterval = 15 * time.Second

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	server        *http.Server
	metricsServer *http.Server
	service       *incidents.Service
	watcher       *incidents.DeadlineWatcher
	closers       []io.Closer

	backgroundCtx    context.Context
	backgroundCancel context.CancelFunc
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	backgroundCtx, backgroundCancel := context.WithCancel(context.Background())

	app := &App{
		config:           cfg,
		logger:           logger,
		db:               db,
		service:          incidents.NewService(incidentspostgres.NewRepository(db)),
		backgroundCtx:    backgroundCtx,
		backgroundCancel: backgroundCancel,
	}

	go metrics.CollectDBPoolMetrics(backgroundCtx, db, dbMetricsInterval)

	notifier, err := app.setupAlerts(connectCtx)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("setup alerts: %w", err)
	}

	if cfg.Watcher.Enabled {
		app.watcher = incidents.NewDeadlineWatcher(incidents.WatcherConfig{
			Schedule: cfg.Watcher.Schedule,
			Timeout:  cfg.Watcher.Timeout,
			BaseURL:  cfg.Alerts.BaseURL,
		}, app.service, notifier)
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           app.setupRouter(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the deadline watcher and the HTTP servers.
func (a *App) Run() error {
	if a.watcher != nil {
		if err := a.watcher.Start(a.backgroundCtx); err != nil {
			return err
		}
	}

	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
		"version", version.Version,
	)

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	// Stop the watcher first so no run starts against a closing pool.
	a.backgroundCancel()
	if a.watcher != nil {
		a.watcher.Stop()
	}

	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	for name, srv := range map[string]*http.Server{"server": a.server, "metrics server": a.metricsServer} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Shutdown(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("shutdown %s: %w", name, err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if err := a.close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (a *App) close() error {
	a.backgroundCancel()

	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.db.Close()
	return errors.Join(errs...)
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

// Watcher returns the deadline watcher, nil if disabled.
// Used in tests to trigger a run without waiting for the schedule.
func (a *App) Watcher() *incidents.DeadlineWatcher {
	return a.watcher
}

// setupAlerts builds the alert notifier, or returns nil when alerts are disabled.
func (a *App) setupAlerts(ctx context.Context) (incidents.AlertNotifier, error) {
	cfg := a.config.Alerts
	if !cfg.Enabled {
		return nil, nil
	}

	var dedup alerts.Deduper = alerts.NewMemoryDeduper()
	if cfg.Redis.Enabled {
		redisDedup, err := alerts.NewRedisDeduper(ctx, alerts.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, redisDedup)
		dedup = redisDedup
	}

	sender := webhook.NewSender(webhook.Config{
		URL:       cfg.Webhook.URL,
		Username:  cfg.Webhook.Username,
		Channel:   cfg.Webhook.Channel,
		Timeout:   cfg.Webhook.Timeout,
		RateLimit: cfg.Webhook.RateLimit,
	})

	notifier, err := alerts.NewNotifier(alerts.Config{
		Filter:   cfg.Filter,
		DedupTTL: cfg.DedupTTL,
	}, dedup, sender)
	if err != nil {
		return nil, err
	}

	a.logger.Info("deadline alerts enabled",
		"filter", cfg.Filter,
		"redis_dedup", cfg.Redis.Enabled,
	)
	return notifier, nil
}

func (a *App) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		http.ServeFile(w, r, "api/openapi/openapi.yaml")
	})

	r.Get("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>DORA Incident Engine API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        SwaggerUIBundle({
            url: "/api/openapi.yaml",
            dom_id: '#swagger-ui',
            presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
            layout: "BaseLayout"
        });
    </script>
</body>
</html>`))
	})

	incidentsHandler := incidents.NewHandler(a.service)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httputil.ActorMiddleware)
		incidentsHandler.RegisterRoutes(r)
	})

	return r
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, version.Get())
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler).With("service", "dora-engine")
}
