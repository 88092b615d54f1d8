// Package log provides structured logging for mixcut fitting and scoring
// operations, built on log/slog with a handler that expands cockroachdb
// error stacktraces, plus a zerolog bridge for the typed error objects.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rs/zerolog"
)

// SetupLogger installs a JSON slog logger as the process default.
// Errors passed via ErrAttr get a stacktrace attribute attached.
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     ToLogLevel(loglevel),
	}
	handler := slog.NewJSONHandler(os.Stdout, &ops)
	slog.SetDefault(slog.New(WrapByErrFmtHandler(handler)))
}

// ToLogLevel converts a level name to a slog.Level.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// NewZerolog builds a zerolog logger writing to w. The typed errors in
// pkg/errors implement zerolog.LogObjectMarshaler, so they log as
// structured objects through ZerologErr.
func NewZerolog(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// ZerologErr attaches err to a zerolog event, expanding it into a
// structured object when the type supports it.
func ZerologErr(e *zerolog.Event, err error) *zerolog.Event {
	if obj, ok := err.(zerolog.LogObjectMarshaler); ok { //nolint:errorlint // marshal the outermost type
		return e.Object(ErrAttrKey, obj)
	}
	return e.Err(err)
}
