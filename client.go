// Package toolclient is a client for remote MCP tool servers. It selects a
// transport (with a one-shot fallback from event-stream to plain HTTP),
// discovers the server's tools once, filters call arguments against the
// discovered schemas, and turns every result into a single string.
package toolclient

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/deep-sre-agent/go-toolclient/src/logging"
	"github.com/deep-sre-agent/go-toolclient/src/normalize"
	"github.com/deep-sre-agent/go-toolclient/src/repository"
	"github.com/deep-sre-agent/go-toolclient/src/tools"
	"github.com/deep-sre-agent/go-toolclient/src/transports"
	"github.com/deep-sre-agent/go-toolclient/src/transports/mcp"
)

// Client talks to one tool server. It is safe for concurrent use; calls are
// serialized.
type Client struct {
	cfg        ClientConfig
	log        *logging.Sink
	registry   transports.Registry
	selector   *selector
	cache      *repository.CapabilityCache
	normalizer normalize.Normalizer
	validate   bool

	callMu     sync.Mutex
	discoverMu sync.Mutex
}

type options struct {
	registry transports.Registry
	sink     *logging.Sink
	hook     normalize.Hook
	validate bool
}

// Option customizes a Client.
type Option func(*options)

// WithRegistry replaces the set of available transports.
func WithRegistry(r transports.Registry) Option {
	return func(o *options) { o.registry = r.Clone() }
}

// WithDialer registers or replaces the dialer for one mode. A nil dialer
// removes the mode.
func WithDialer(mode transports.Mode, d transports.Dialer) Option {
	return func(o *options) {
		if d == nil {
			delete(o.registry, mode)
			return
		}
		o.registry[mode] = d
	}
}

// WithLogger uses s instead of a sink built from the configuration.
func WithLogger(s *logging.Sink) Option {
	return func(o *options) { o.sink = s }
}

// WithPostProcess sets the hook applied to JSON-serialized results.
func WithPostProcess(h normalize.Hook) Option {
	return func(o *options) { o.hook = h }
}

// WithSchemaValidation validates filtered arguments against the discovered
// schema before each call. Violations are logged, never enforced.
func WithSchemaValidation(on bool) Option {
	return func(o *options) { o.validate = on }
}

// DefaultRegistry returns the built-in transports.
func DefaultRegistry() transports.Registry {
	return transports.Registry{
		transports.ModeEventStream:    mcp.DialSSE,
		transports.ModeStreamableHTTP: mcp.DialStreamableHTTP,
		transports.ModePlainHTTP:      mcp.DialHTTP,
	}
}

// New builds a client. No network activity happens until the first call.
func New(cfg ClientConfig, opts ...Option) *Client {
	o := &options{registry: DefaultRegistry()}
	for _, opt := range opts {
		opt(o)
	}
	cfg = cfg.clone()
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	sink := o.sink
	if sink == nil {
		sink = logging.New(logging.Options{Service: cfg.Service, Level: cfg.LogLevel, Verbose: cfg.Verbose})
	}
	for _, w := range cfg.Warnings {
		sink.Warn().Msg(w)
	}

	return &Client{
		cfg:        cfg,
		log:        sink,
		registry:   o.registry,
		selector:   newSelector(cfg, o.registry, sink),
		cache:      repository.NewCapabilityCache(),
		normalizer: normalize.Normalizer{Hook: o.hook},
		validate:   o.validate,
	}
}

// Config returns a copy of the client's configuration.
func (c *Client) Config() ClientConfig {
	return c.cfg.clone()
}

// Mode returns the transport mode the next call will use first.
func (c *Client) Mode() transports.Mode {
	return c.selector.Mode()
}

// Logger returns the client's log sink.
func (c *Client) Logger() *logging.Sink {
	return c.log
}

// EnsureDiscovered lists the server's tools the first time it is called.
// Failures are logged and leave the cache discovered and empty; discovery
// is never retried.
func (c *Client) EnsureDiscovered(ctx context.Context) {
	c.discoverMu.Lock()
	defer c.discoverMu.Unlock()
	if c.cache.Discovered() {
		return
	}

	payload, err := c.do(ctx, func(ctx context.Context) (any, error) {
		return c.runCall(ctx, "tools/list", nil, func(ctx context.Context, s transports.Session) (any, error) {
			return s.ListTools(ctx)
		})
	})
	if err != nil {
		c.log.Warn().Str(zerolog.ErrorFieldName, logging.Truncate(err.Error(), logging.MaxMessage)).Msg("MCP tool discovery failed, continuing without tool list")
		c.cache.MarkFailed()
		return
	}
	list, err := tools.ParseToolList(payload)
	if err != nil {
		c.log.Warn().Str(zerolog.ErrorFieldName, logging.Truncate(err.Error(), logging.MaxMessage)).Msg("MCP tool discovery returned an unusable payload")
		c.cache.MarkFailed()
		return
	}
	c.cache.SaveTools(list)
	c.log.Info().Int("count", len(list)).Strs("tools", c.cache.ToolNames()).Msg("MCP tools discovered")
}

// Tools returns the discovered tools, discovering them first if needed.
func (c *Client) Tools(ctx context.Context) []tools.Tool {
	c.EnsureDiscovered(ctx)
	return c.cache.GetTools()
}

// MatchTool resolves the first usable tool name among candidates.
func (c *Client) MatchTool(candidates ...string) (string, bool) {
	return c.cache.MatchTool(candidates...)
}

// Tool returns a discovered tool by exact name. It does not trigger
// discovery.
func (c *Client) Tool(name string) (tools.Tool, bool) {
	return c.cache.GetTool(name)
}

// FilterArgs keeps the arguments the tool's schema declares, minus nil
// values.
func (c *Client) FilterArgs(toolName string, args map[string]any) map[string]any {
	return c.cache.FilterArgs(toolName, args)
}

// Call invokes toolName with args as given and returns the normalized
// result.
func (c *Client) Call(ctx context.Context, toolName string, args map[string]any) (string, error) {
	if args == nil {
		args = map[string]any{}
	}
	if c.validate || c.log.Verbose() {
		if t, ok := c.cache.GetTool(toolName); ok {
			if err := t.Validate(args); err != nil {
				c.log.Warn().Str("name", toolName).Err(err).Msg("MCP call arguments do not match the tool schema")
			}
		}
	}

	result, err := c.do(ctx, func(ctx context.Context) (any, error) {
		return c.runCall(ctx, toolName, args, func(ctx context.Context, s transports.Session) (any, error) {
			return s.CallTool(ctx, toolName, args)
		})
	})
	if err != nil {
		return "", err
	}

	content, isError := normalize.ResultContent(result)
	out := c.normalizer.Normalize(content)
	if isError {
		c.log.Warn().Str("name", toolName).Str("body", logging.Truncate(out, logging.MaxMessage)).Msg("MCP tool reported an error")
	} else {
		c.log.Info().Str("name", toolName).Str("body", c.log.Preview(out, logging.MaxMessage)).Msg("MCP call normalized body")
	}
	return out, nil
}

// Invoke is the adapted call used by the service clients: discover, resolve
// the tool among candidates, filter args, call. Every outcome is a string.
func (c *Client) Invoke(ctx context.Context, kind string, candidates []string, args map[string]any) string {
	c.EnsureDiscovered(ctx)
	name, ok := c.MatchTool(candidates...)
	if !ok {
		return UnavailableMessage(kind)
	}
	out, err := c.Call(ctx, name, c.FilterArgs(name, args))
	if err != nil {
		return FailureMessage(name, err)
	}
	return out
}
