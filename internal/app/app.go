// Package app wires the order client together: configuration, transport,
// repository, service, store, and the admin listener that exposes health
// and metrics.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JuanJosePl/new-killaVibe-sub001/internal/config"
	"github.com/JuanJosePl/new-killaVibe-sub001/internal/repository/rest"
	"github.com/JuanJosePl/new-killaVibe-sub001/internal/service"
	"github.com/JuanJosePl/new-killaVibe-sub001/internal/store"
	"github.com/JuanJosePl/new-killaVibe-sub001/pkg/health"
	"github.com/JuanJosePl/new-killaVibe-sub001/pkg/httpclient"
	"github.com/JuanJosePl/new-killaVibe-sub001/pkg/middleware"
)

const serviceName = "storefront-orders"

// App wires together all dependencies of the order client.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	admin  *http.Server

	shutdownTracing func(context.Context) error
}

// New creates the full dependency graph from configuration.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	shutdownTracing, err := initTracer(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = cfg.HTTPTimeout()
	clientCfg.MaxRetries = cfg.HTTPMaxRetries
	if cfg.APIToken != "" {
		clientCfg.Token = httpclient.StaticToken(cfg.APIToken)
	}
	base := httpclient.New(clientCfg)

	cbCfg := httpclient.DefaultCircuitBreakerConfig("storefront-api")
	cbCfg.MaxRequests = cfg.CBMaxRequests
	cbCfg.Interval = time.Duration(cfg.CBInterval) * time.Second
	cbCfg.Timeout = time.Duration(cfg.CBTimeout) * time.Second
	cbCfg.FailureRatio = cfg.CBFailureRatio
	cbCfg.MinRequests = cfg.CBMinRequests
	client := httpclient.NewCircuitBreakerClient(base, cbCfg, logger)

	repo := rest.NewOrderRepository(client, cfg.APIBaseURL, logger)
	orderService := service.NewOrderService(repo, logger)
	orderStore := store.New(orderService, logger)

	healthHandler := health.NewHandler(serviceName)
	healthHandler.Register("backend", repo.Ping)

	admin := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.AdminPort),
		Handler:      adminRouter(healthHandler, cfg, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("order client initialized",
		slog.String("backend", cfg.APIBaseURL),
		slog.Int("admin_port", cfg.AdminPort),
	)

	return &App{
		cfg:             cfg,
		logger:          logger,
		store:           orderStore,
		admin:           admin,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Store returns the order store backing this app.
func (a *App) Store() *store.Store {
	return a.store
}

// Run starts the admin listener and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting admin listener",
			slog.String("addr", a.admin.Addr),
		)
		if err := a.admin.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("admin listener: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the admin listener and flushes traces. It is
// safe to call even when Run was never started.
func (a *App) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.admin.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("admin listener shutdown error", slog.String("error", err.Error()))
	}

	if err := a.shutdownTracing(shutdownCtx); err != nil {
		a.logger.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("shutdown complete")
	return nil
}

// adminRouter serves the operational endpoints: liveness, readiness,
// prometheus metrics, and allowlisted pprof.
func adminRouter(h *health.Handler, cfg *config.Config, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestLogging(log))

	r.Get("/health/live", h.LivenessHandler())
	r.Get("/health/ready", h.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, log)

	return r
}
