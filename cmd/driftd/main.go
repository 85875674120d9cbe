// Command driftd is the main entry point for the conversation
// drift-analysis server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/driftos/driftd/internal/app"
	"github.com/driftos/driftd/internal/config"
	"github.com/driftos/driftd/internal/observe"
	"github.com/driftos/driftd/pkg/provider/analyzer"
	"github.com/driftos/driftd/pkg/provider/analyzer/corenlp"
	"github.com/driftos/driftd/pkg/provider/analyzer/heuristic"
	"github.com/driftos/driftd/pkg/provider/encoder"
	"github.com/driftos/driftd/pkg/provider/encoder/ollama"
	"github.com/driftos/driftd/pkg/provider/encoder/openai"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "driftd: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "driftd: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := observe.NewLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("driftd starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Metrics provider ──────────────────────────────────────────────────────
	shutdownMetrics, err := observe.InitProvider(context.Background(), observe.ProviderConfig{ServiceName: "driftd"})
	if err != nil {
		slog.Error("failed to initialise metrics provider", "err", err)
		return 1
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			slog.Warn("metrics provider shutdown error", "err", err)
		}
	}()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	// ── Instantiate providers ─────────────────────────────────────────────────
	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg)

	// ── Application wiring ────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, providers)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// builtinProviders maps provider category names to the implementations that
// ship with driftd. Used for startup logging.
var builtinProviders = map[string][]string{
	"encoder":  {"ollama", "openai"},
	"analyzer": {"heuristic", "corenlp"},
}

// registerBuiltinProviders registers the real factory functions for every
// built-in provider implementation.
func registerBuiltinProviders(reg *config.Registry) {
	for kind, names := range builtinProviders {
		for _, name := range names {
			slog.Debug("registered provider", "kind", kind, "name", name)
		}
	}

	reg.RegisterEncoder("ollama", func(entry config.ProviderEntry) (encoder.Provider, error) {
		var opts []ollama.Option
		if dims, ok := entry.Options["dimensions"].(int); ok && dims > 0 {
			opts = append(opts, ollama.WithDimensions(dims))
		}
		return ollama.New(entry.BaseURL, entry.Model, opts...)
	})

	reg.RegisterEncoder("openai", func(entry config.ProviderEntry) (encoder.Provider, error) {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	})

	reg.RegisterAnalyzer("heuristic", func(config.ProviderEntry) (analyzer.Provider, error) {
		return heuristic.New(), nil
	})

	reg.RegisterAnalyzer("corenlp", func(entry config.ProviderEntry) (analyzer.Provider, error) {
		baseURL := entry.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:9000"
		}
		return corenlp.New(baseURL), nil
	})
}

// buildProviders instantiates all providers named in cfg using the registry
// and returns them in an [app.Providers] struct for the application to consume.
func buildProviders(cfg *config.Config, reg *config.Registry) (*app.Providers, error) {
	ps := &app.Providers{}

	if name := cfg.Providers.Encoder.Name; name != "" {
		p, err := reg.CreateEncoder(cfg.Providers.Encoder)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Warn("encoder provider not registered — skipping", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create encoder provider %q: %w", name, err)
		} else {
			ps.Encoder = p
			slog.Info("provider created", "kind", "encoder", "name", name)
		}
	}

	if name := cfg.Providers.Analyzer.Name; name != "" {
		p, err := reg.CreateAnalyzer(cfg.Providers.Analyzer)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Warn("analyzer provider not registered — skipping", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create analyzer provider %q: %w", name, err)
		} else {
			ps.Analyzer = p
			slog.Info("provider created", "kind", "analyzer", "name", name)
		}
	}

	return ps, nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         driftd — startup summary      ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("Encoder", cfg.Providers.Encoder.Name, cfg.Providers.Encoder.Model)
	printProvider("Analyzer", cfg.Providers.Analyzer.Name, cfg.Providers.Analyzer.Model)
	fmt.Printf("║  Drift threshold : %-19.2f ║\n", cfg.Scoring.DriftThreshold)
	fmt.Printf("║  Continue thresh.: %-19.2f ║\n", cfg.Scoring.ContinueThreshold)
	if cfg.Server.ListenAddr != "" {
		fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}
