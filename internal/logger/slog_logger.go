package logger

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// NewSlogLogger creates a standalone JSON logger writing to writer.
// It is used by tests and by adapters that need a logger before the
// CentralLogger exists.
func NewSlogLogger(writer io.Writer, level LogLevel, timezone *time.Location) Logger {
	if writer == nil {
		writer = os.Stderr
	}
	slogLevel := parseLogLevel(string(level))
	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if timezone != nil && a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				a.Value = slog.TimeValue(a.Value.Time().In(timezone))
			}
			return a
		},
	})
	return &moduleLogger{
		logger: slog.New(handler),
		level:  slogLevel,
	}
}

// NewConsoleLogger creates a text logger on stderr for use before configuration is loaded.
func NewConsoleLogger(module string, level LogLevel) Logger {
	slogLevel := parseLogLevel(string(level))
	return &moduleLogger{
		module: module,
		logger: slog.New(newTextHandler(os.Stderr, slogLevel, time.Local)),
		level:  slogLevel,
	}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger {
	return &moduleLogger{
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		level:  slog.LevelError + 1,
	}
}
