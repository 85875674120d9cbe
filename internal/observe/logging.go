package observe

import (
	"log/slog"
	"os"

	"github.com/driftos/driftd/internal/config"
)

// NewLogger builds the application's [slog.Logger]. When NODE_ENV=production
// it emits structured JSON (for log aggregators); otherwise it emits a
// human-readable text handler, mirroring the console/structured split the
// original embedding server made at startup.
func NewLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	if os.Getenv("NODE_ENV") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
