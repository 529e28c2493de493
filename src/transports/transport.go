package transports

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Mode names the wire transport used to reach a tool server.
type Mode string

const (
	ModeEventStream    Mode = "sse"
	ModeStreamableHTTP Mode = "streamable-http"
	ModePlainHTTP      Mode = "http"
)

// ParseMode accepts the canonical mode names and their common aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sse", "event-stream", "eventstream":
		return ModeEventStream, nil
	case "streamable-http", "streaming-http", "streamable", "http_stream":
		return ModeStreamableHTTP, nil
	case "http", "plain-http":
		return ModePlainHTTP, nil
	}
	return "", fmt.Errorf("unknown transport mode %q", s)
}

// Endpoint is everything a Dialer needs to open one session.
type Endpoint struct {
	Mode    Mode
	URL     string
	Headers map[string]string
	Timeout time.Duration
	// Logger receives transport-level debug output. Never nil once a
	// session is dialed through a Registry.
	Logger func(format string, args ...interface{})
}

// Session is one open connection to a tool server. A session carries
// exactly one logical operation after the handshake and is then closed.
type Session interface {
	// Initialize performs the protocol handshake.
	Initialize(ctx context.Context) error
	// ListTools returns the generic tools/list payload, all pages merged
	// into {"tools": [...]}.
	ListTools(ctx context.Context) (any, error)
	// CallTool invokes one tool and returns the generic tools/call result.
	CallTool(ctx context.Context, name string, args map[string]any) (any, error)
	Close() error
}

// Dialer opens a session. A dialer returning an error has not acquired any
// resource that needs closing.
type Dialer func(ctx context.Context, ep Endpoint) (Session, error)

// Registry maps modes to the dialers able to serve them. A mode without a
// dialer is treated as an unavailable transport.
type Registry map[Mode]Dialer

// Has reports whether a dialer is registered for m.
func (r Registry) Has(m Mode) bool {
	return r[m] != nil
}

// Dial opens a session for ep.Mode.
func (r Registry) Dial(ctx context.Context, ep Endpoint) (Session, error) {
	d := r[ep.Mode]
	if d == nil {
		return nil, fmt.Errorf("no dialer registered for transport %q", ep.Mode)
	}
	if ep.Logger == nil {
		ep.Logger = func(format string, args ...interface{}) {}
	}
	return d(ctx, ep)
}

// Clone returns a shallow copy safe to modify.
func (r Registry) Clone() Registry {
	out := make(Registry, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
