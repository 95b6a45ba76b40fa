// Package logging constructs the structured loggers handed to pipeline
// components. There is no package-level logger; callers pass one down.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Prefix is printed before every line.
const Prefix = "contentpipe"

// New returns a logger writing to w at the given level.
func New(w io.Writer, level log.Level) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          Prefix,
	})
	l.SetLevel(level)
	return l
}

// NewFromString parses level ("debug", "info", "warn", "error") and calls
// New. An empty level means info.
func NewFromString(w io.Writer, level string) (*log.Logger, error) {
	if strings.TrimSpace(level) == "" {
		return New(w, log.InfoLevel), nil
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return New(w, lvl), nil
}

// Discard returns a logger that drops everything. Components use it when
// no logger is supplied.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
