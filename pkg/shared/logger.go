package shared

import (
	"log/slog"
	"os"
)

// LogConfig holds configuration for the logger.
type LogConfig struct {
	Level     slog.Level
	Format    string // "json" or "text"
	AddSource bool
}

// DefaultLogConfig returns a default logger configuration.
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Level:     slog.LevelInfo,
		Format:    "text",
		AddSource: false,
	}
}

// ParseLevel converts a config-file log level name into a slog.Level.
func ParseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger initializes the global structured logger.
func InitLogger(config *LogConfig) {
	if config == nil {
		config = DefaultLogConfig()
	}

	opts := &slog.HandlerOptions{
		Level:     config.Level,
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler).With("service", "quictund"))
}
