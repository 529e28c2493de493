// Package logs is the client for a Loki MCP server. It defaults to the
// event-stream transport and falls back to plain HTTP when LOKI_MCP_URL is
// set.
package logs

import (
	"context"

	toolclient "github.com/deep-sre-agent/go-toolclient"
	"github.com/deep-sre-agent/go-toolclient/src/transports"
)

const (
	Service          = "loki_mcp"
	EnvPrefix        = "LOKI_MCP"
	DefaultSSEURL    = "http://localhost:7080/sse"
	DefaultQueryTool = "loki_query"
)

// ToolQuery is the override key read from LOKI_MCP_TOOL_QUERY.
const ToolQuery = "query"

func DefaultConfig() toolclient.ClientConfig {
	return toolclient.ClientConfig{
		Service:   Service,
		EnvPrefix: EnvPrefix,
		Mode:      transports.ModeEventStream,
		Endpoints: toolclient.Endpoints{EventStream: DefaultSSEURL},
		Timeout:   toolclient.DefaultTimeout,
	}
}

func ConfigFromEnv() toolclient.ClientConfig {
	return toolclient.ConfigFromEnv(EnvPrefix, DefaultConfig(), ToolQuery)
}

type Client struct {
	mcp *toolclient.Client
	cfg toolclient.ClientConfig
}

func New(cfg toolclient.ClientConfig, opts ...toolclient.Option) *Client {
	mcp := toolclient.New(cfg, opts...)
	return &Client{mcp: mcp, cfg: mcp.Config()}
}

func NewFromEnv(opts ...toolclient.Option) *Client {
	return New(ConfigFromEnv(), opts...)
}

func (c *Client) MCP() *toolclient.Client {
	return c.mcp
}

// Query runs a LogQL query. Empty start or end and a zero limit are
// omitted; labels are sent as an empty object when nil.
func (c *Client) Query(ctx context.Context, query, start, end string, limit int, labels map[string]string) string {
	if labels == nil {
		labels = map[string]string{}
	}
	tool := c.cfg.ToolOverride(ToolQuery)
	if tool == "" {
		tool = DefaultQueryTool
	}
	return c.mcp.Invoke(ctx, "log query", []string{tool}, map[string]any{
		"query":  query,
		"start":  toolclient.OmitZero(start),
		"end":    toolclient.OmitZero(end),
		"limit":  toolclient.OmitZero(limit),
		"labels": labels,
	})
}
