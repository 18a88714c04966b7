package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
)

const prefix = "[lyroverlay] "

var debugEnabled atomic.Bool

// New builds the process logger. With a path the log goes to that file,
// since the overlay owns the terminal; otherwise it goes to stderr. The
// returned closer releases the file and is never nil.
func New(path string, debug bool) (*log.Logger, io.Closer, error) {
	SetDebug(debug)

	if path == "" {
		return log.New(os.Stderr, prefix, log.LstdFlags), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	flags := log.LstdFlags
	if debug {
		flags |= log.Lmicroseconds | log.Lshortfile
	}

	return log.New(file, prefix, flags), file, nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// OrDiscard lets components accept a nil logger.
func OrDiscard(logger *log.Logger) *log.Logger {
	if logger == nil {
		return Discard()
	}
	return logger
}

func SetDebug(enabled bool) { debugEnabled.Store(enabled) }

func DebugEnabled() bool { return debugEnabled.Load() }

// Debugf logs only when debug output is switched on.
func Debugf(logger *log.Logger, format string, args ...any) {
	if logger == nil || !debugEnabled.Load() {
		return
	}
	logger.Output(2, "DEBUG: "+fmt.Sprintf(format, args...))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
