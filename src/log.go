package magstripe

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

func parseLogLevel(level string) (log.Level, error) {
	switch level {
	case "debug", "info", "warn", "error":
		return log.ParseLevel(level)
	default:
		return log.InfoLevel, fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", level)
	}
}

// NewLogger builds the logger shared by every stage.  Output goes to w,
// normally stderr so decoded data on stdout stays clean.
func NewLogger(w io.Writer, cfg LogConfig) *log.Logger {
	var level, _ = parseLogLevel(cfg.Level)

	var formatter = log.TextFormatter
	switch cfg.Format {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}

	return log.NewWithOptions(w, log.Options{ //nolint:exhaustruct
		Level:           level,
		Prefix:          "magstripe",
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Formatter:       formatter,
	})
}

func orDefault(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.Default()
	}

	return logger
}
