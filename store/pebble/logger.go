package pebble

import (
	"fmt"
	"log/slog"
	"os"

	pdb "github.com/cockroachdb/pebble"
)

var _ pdb.Logger = (*slogLogger)(nil)

// slogLogger routes Pebble's printf-style engine messages (WAL replay,
// compactions) through slog.
type slogLogger struct {
	logger *slog.Logger
}

func newLogger(logger *slog.Logger) *slogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogLogger{logger: logger.With("component", "bookledger/pebble")}
}

func (l *slogLogger) Infof(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

// Fatalf reports an unrecoverable engine error and exits, as Pebble's own
// default logger does.
func (l *slogLogger) Fatalf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}

// WithLogger routes Pebble's engine messages to logger. Without it they go
// to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *pdb.Options) {
		o.Logger = newLogger(logger)
	}
}
