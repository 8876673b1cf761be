package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/google/wire"
	"github.com/trebuchet-org/treb-gateway/internal/domain/config"
)

var LoggingSet = wire.NewSet(
	NewLogger,
)

// NewLogger creates a new logger based on runtime configuration.
// TREB_LOG_LEVEL sets the level; --debug forces debug and adds source locations.
func NewLogger(cfg *config.RuntimeConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(os.Getenv("TREB_LOG_LEVEL")),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok {
					source.File = shortPath(source.File)
				}
			}
			return a
		},
	}

	if cfg != nil && cfg.Debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// ParseLevel maps a TREB_LOG_LEVEL value to a slog level, defaulting to info
func ParseLevel(val string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// shortPath trims source paths to the module-relative part
func shortPath(file string) string {
	if idx := strings.Index(file, "treb-gateway/"); idx != -1 {
		return file[idx+len("treb-gateway/"):]
	}
	if idx := strings.LastIndex(file, "/internal/"); idx != -1 {
		return file[idx+1:]
	}
	parts := strings.Split(file, "/")
	return parts[len(parts)-1]
}
