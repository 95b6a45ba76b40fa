package pipeline

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/roach88/contentpipe/internal/logging"
)

// Severity grades a build message.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityInformation
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInformation:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "none"
	}
}

// Message is a build message attributed to a build-file. File is empty
// for messages about the build as a whole.
type Message struct {
	File     string
	Text     string
	Severity Severity
}

func (m Message) String() string {
	if m.File == "" {
		return fmt.Sprintf("%s: %s", m.Severity, m.Text)
	}
	return fmt.Sprintf("%s: %s: %s", m.File, m.Severity, m.Text)
}

// Reporter receives build messages.
type Reporter interface {
	Report(Message)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Message)

func (f ReporterFunc) Report(m Message) { f(m) }

// Collector keeps every message and mirrors it to a logger:
// Error to Error, Warning to Warn, Information to Info, None to Debug.
type Collector struct {
	mu       sync.Mutex
	messages []Message
	logger   *log.Logger
	next     Reporter
}

// NewCollector creates a collector logging to logger and forwarding to
// next when it is not nil.
func NewCollector(logger *log.Logger, next Reporter) *Collector {
	return &Collector{logger: logging.OrDiscard(logger), next: next}
}

func (c *Collector) Report(m Message) {
	c.mu.Lock()
	c.messages = append(c.messages, m)
	c.mu.Unlock()

	kv := []any{"file", m.File}
	if m.File == "" {
		kv = nil
	}
	switch m.Severity {
	case SeverityError:
		c.logger.Error(m.Text, kv...)
	case SeverityWarning:
		c.logger.Warn(m.Text, kv...)
	case SeverityInformation:
		c.logger.Info(m.Text, kv...)
	default:
		c.logger.Debug(m.Text, kv...)
	}

	if c.next != nil {
		c.next.Report(m)
	}
}

// Messages returns the collected messages in report order.
func (c *Collector) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// Count returns how many messages have severity s.
func (c *Collector) Count(s Severity) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.messages {
		if m.Severity == s {
			n++
		}
	}
	return n
}

// For returns the messages attributed to file.
func (c *Collector) For(file string) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Message
	for _, m := range c.messages {
		if m.File == file {
			out = append(out, m)
		}
	}
	return out
}
