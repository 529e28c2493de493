// Package logging builds the per-client log sink.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MaxMessage bounds any error message or payload preview written to a log.
const MaxMessage = 2000

var initOnce sync.Once

// Init applies process-wide zerolog settings. It is idempotent, so every
// client may call it without duplicating configuration.
func Init() {
	initOnce.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		zerolog.DurationFieldUnit = time.Millisecond
	})
}

// Sink is the logger owned by one client instance.
type Sink struct {
	zerolog.Logger
	verbose bool
}

// Options configure a Sink.
type Options struct {
	Service string
	Level   string
	Verbose bool
	Writer  io.Writer
}

// New builds a sink tagged with the service name. An unknown level falls
// back to info.
func New(opts Options) *Sink {
	Init()
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	logger := zerolog.New(w).Level(ParseLevel(opts.Level)).With().Timestamp().Str("service", opts.Service).Logger()
	return &Sink{Logger: logger, verbose: opts.Verbose}
}

// FromLogger wraps an existing zerolog logger.
func FromLogger(l zerolog.Logger, service string, verbose bool) *Sink {
	Init()
	return &Sink{Logger: l.With().Str("service", service).Logger(), verbose: verbose}
}

// Nop returns a sink that discards everything.
func Nop() *Sink {
	return &Sink{Logger: zerolog.Nop()}
}

// Verbose reports whether full payloads should be logged.
func (s *Sink) Verbose() bool {
	return s.verbose
}

// Printf adapts the sink to the printf-style hook transports accept. Output
// goes to debug level.
func (s *Sink) Printf() func(format string, args ...interface{}) {
	return func(format string, args ...interface{}) {
		s.Debug().Msg(fmt.Sprintf(format, args...))
	}
}

// Preview returns s unchanged in verbose mode and truncated to n runes
// otherwise.
func (s *Sink) Preview(text string, n int) string {
	if s.verbose {
		return text
	}
	return Truncate(text, n)
}

// ParseLevel maps level names, including the "warning" spelling, to zerolog
// levels.
func ParseLevel(level string) zerolog.Level {
	l := strings.ToLower(strings.TrimSpace(level))
	switch l {
	case "":
		return zerolog.InfoLevel
	case "warning":
		return zerolog.WarnLevel
	case "critical":
		return zerolog.FatalLevel
	}
	parsed, err := zerolog.ParseLevel(l)
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}

// Truncate cuts s to at most n runes and marks the cut with "...".
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + "..."
		}
		count++
	}
	return s
}
