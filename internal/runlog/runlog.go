// Package runlog records the human-readable trail of a single pipeline run.
package runlog

import (
	"fmt"
	"log/slog"
	"sync"
)

// Log is an append-only list of progress lines. It is safe for concurrent use.
// A nil *Log discards everything, so stages can be exercised without one.
type Log struct {
	mu       sync.Mutex
	entries  []string
	progress func(string)
	logger   *slog.Logger
}

// New creates a Log. progress, if non-nil, receives every line as it is added.
func New(progress func(string), logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{progress: progress, logger: logger}
}

// Add formats and appends a line.
func (l *Log) Add(format string, args ...any) {
	if l == nil {
		return
	}
	line := fmt.Sprintf(format, args...)

	l.mu.Lock()
	l.entries = append(l.entries, line)
	l.mu.Unlock()

	l.logger.Debug("pipeline", "line", line)
	if l.progress != nil {
		l.progress(line)
	}
}

// Entries returns a copy of all lines recorded so far.
func (l *Log) Entries() []string {
	if l == nil {
		return []string{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}
