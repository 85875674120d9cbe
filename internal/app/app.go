// Package app wires the driftd subsystems into a running application.
//
// The App struct owns the full lifecycle: New wires the given
// encoder/analyzer providers into the HTTP server, Run starts serving and
// blocks until the context is cancelled, and Shutdown tears everything
// down in order.
//
// For testing, inject provider doubles via functional options (WithEncoder,
// WithAnalyzer). When an option is not provided, New uses the provider from
// the Providers value it was given; New itself never consults the provider
// registry.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/driftos/driftd/internal/config"
	"github.com/driftos/driftd/internal/health"
	"github.com/driftos/driftd/internal/httpapi"
	"github.com/driftos/driftd/internal/observe"
	"github.com/driftos/driftd/pkg/provider/analyzer"
	"github.com/driftos/driftd/pkg/provider/encoder"
)

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured; the HTTP surface responds 503 for any
// endpoint that needs a nil provider.
type Providers struct {
	Encoder  encoder.Provider
	Analyzer analyzer.Provider
}

// App owns the HTTP server and provider lifetimes for the drift analysis
// service.
type App struct {
	cfg       *config.Config
	providers *Providers
	metrics   *observe.Metrics

	server *http.Server

	closers  []func() error
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithEncoder injects an encoder provider, replacing the one in the
// Providers value passed to New.
func WithEncoder(e encoder.Provider) Option {
	return func(a *App) { a.providers.Encoder = e }
}

// WithAnalyzer injects an analyzer provider, replacing the one in the
// Providers value passed to New.
func WithAnalyzer(an analyzer.Provider) Option {
	return func(a *App) { a.providers.Analyzer = an }
}

// New creates an App by wiring the HTTP surface around the given providers.
// The providers struct comes from main.go (populated via the config
// registry). Use Option functions to inject test doubles for any provider.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil {
		providers = &Providers{}
	}
	a := &App{
		cfg:       cfg,
		providers: providers,
		metrics:   observe.DefaultMetrics(),
	}
	for _, o := range opts {
		o(a)
	}

	mux := http.NewServeMux()

	api := httpapi.New(a.providers.Encoder, a.providers.Analyzer, httpapi.Config{
		DriftThreshold:    cfg.Scoring.DriftThreshold,
		ContinueThreshold: cfg.Scoring.ContinueThreshold,
	})
	api.Register(mux)

	healthHandler := health.New(a.checkers()...)
	healthHandler.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	a.server = &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: observe.Middleware(a.metrics)(mux),
	}

	return a, nil
}

// checkers builds the readiness checks for the providers this app holds.
func (a *App) checkers() []health.Checker {
	var checks []health.Checker
	if a.providers.Encoder != nil {
		checks = append(checks, health.Checker{
			Name: "encoder",
			Check: func(ctx context.Context) error {
				_, err := a.providers.Encoder.Embed(ctx, "readiness probe")
				return err
			},
		})
	}
	if a.providers.Analyzer != nil {
		checks = append(checks, health.Checker{
			Name: "analyzer",
			Check: func(ctx context.Context) error {
				_, err := a.providers.Analyzer.Parse(ctx, "readiness probe")
				return err
			},
		})
	}
	return checks
}

// Providers returns the provider set this app was built with.
func (a *App) Providers() *Providers { return a.providers }

// Run starts the HTTP server and blocks until ctx is cancelled or the
// server stops with an error other than [http.ErrServerClosed].
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server and runs any registered closers
// in order. It respects the context deadline: if ctx expires before
// shutdown completes, the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down http server")
		if err := a.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("app: http shutdown: %w", err)
			return
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}
	})
	return shutdownErr
}
