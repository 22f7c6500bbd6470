// Package logger provides the configured zerolog logger used by every binary.
package logger

import (
	"io"
	"os"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

type stackTracer interface{ StackTrace() pkgerrors.StackTrace }

// New returns a JSON logger writing to stdout at info level.
// Use .Stack() on error events to include stacks.
func New(serviceName string) zerolog.Logger {
	return NewWithLevel(serviceName, "info")
}

// NewWithLevel is New with an explicit level name ("debug", "info", "warn", ...).
// Unknown names fall back to info.
func NewWithLevel(serviceName, level string) zerolog.Logger {
	return newLogger(os.Stdout, serviceName, level)
}

func newLogger(w io.Writer, serviceName, level string) zerolog.Logger {
	installStackMarshalers()

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).Level(lvl).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}

// installStackMarshalers makes pkg/errors stacks render on .Stack() events,
// attaching one to plain errors when missing.
func installStackMarshalers() {
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		if _, ok := err.(stackTracer); !ok {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		if _, ok := err.(stackTracer); ok {
			return err
		}
		return pkgerrors.WithStack(err)
	}
}
