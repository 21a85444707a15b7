package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/mortar/internal/config"
	mortarhttp "github.com/aretw0/mortar/pkg/adapters/http"
	"github.com/aretw0/mortar/pkg/observability"
	"github.com/aretw0/mortar/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServeOptions configures the HTTP server.
type ServeOptions struct {
	Config *config.Config
	Debug  bool
}

const shutdownTimeout = 5 * time.Second

// Serve exposes dialogue sessions over HTTP until ctx is cancelled.
func Serve(ctx context.Context, opts ServeOptions) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := createLogger(cfg.LogLevel, opts.Debug, false)

	handler, closeStore, err := newServeHandler(ctx, cfg, opts.Debug)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "addr", cfg.HTTP.Addr, "assets", cfg.Assets)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newServeHandler wires engines, metrics and the session store into the
// HTTP API.
func newServeHandler(ctx context.Context, cfg *config.Config, debug bool) (http.Handler, func() error, error) {
	logger := createLogger(cfg.LogLevel, debug, false)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return nil, nil, err
	}

	// Fail fast on a broken assets directory.
	if _, err := createEngine(cfg, logger, metrics.Hooks(), debug); err != nil {
		return nil, nil, err
	}
	factory := func() (mortarhttp.Engine, error) {
		engine, err := createEngine(cfg, logger, metrics.Hooks(), debug)
		if err != nil {
			return nil, err
		}
		return engine, nil
	}

	store, locker, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	manager := session.NewManager(store, session.WithLocker(locker), session.WithLogger(logger))

	return mortarhttp.NewHandler(factory, manager,
		mortarhttp.WithLogger(logger),
		mortarhttp.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})),
	), closeStore, nil
}
