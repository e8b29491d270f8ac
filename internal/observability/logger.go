package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/eugene-g/ambiata-weather/internal/config"
)

// NewLogger builds the process logger from config: JSON or text output at the
// configured level. Logs go to stderr so aggregation results own stdout.
func NewLogger(cfg *config.Config) *slog.Logger {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
