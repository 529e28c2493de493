// Package prometheus is the client for a Prometheus MCP server. It only
// speaks streamable HTTP and rewrites sample timestamps in JSON output to
// UTC+8 wall-clock strings.
package prometheus

import (
	"context"

	toolclient "github.com/deep-sre-agent/go-toolclient"
	"github.com/deep-sre-agent/go-toolclient/src/normalize"
	"github.com/deep-sre-agent/go-toolclient/src/transports"
)

const (
	Service    = "prometheus_mcp"
	EnvPrefix  = "PROM_MCP"
	DefaultURL = "http://localhost:18090/mcp"
)

// Tool override keys, read from PROM_MCP_TOOL_<KEY>.
const (
	ToolQuery    = "query"
	ToolRange    = "range"
	ToolTargets  = "targets"
	ToolMetadata = "metadata"
)

// DefaultConfig is the configuration used when nothing is set.
func DefaultConfig() toolclient.ClientConfig {
	return toolclient.ClientConfig{
		Service:   Service,
		EnvPrefix: EnvPrefix,
		Mode:      transports.ModeStreamableHTTP,
		Endpoints: toolclient.Endpoints{StreamableHTTP: DefaultURL},
		Timeout:   toolclient.DefaultTimeout,
	}
}

// ConfigFromEnv reads PROM_MCP_* over DefaultConfig.
func ConfigFromEnv() toolclient.ClientConfig {
	return toolclient.ConfigFromEnv(EnvPrefix, DefaultConfig(), ToolQuery, ToolRange, ToolTargets, ToolMetadata)
}

type Client struct {
	mcp *toolclient.Client
	cfg toolclient.ClientConfig
}

// New builds a client. The mode is forced to streamable HTTP.
func New(cfg toolclient.ClientConfig, opts ...toolclient.Option) *Client {
	cfg.Mode = transports.ModeStreamableHTTP
	opts = append([]toolclient.Option{toolclient.WithPostProcess(normalize.RewriteTimestamps)}, opts...)
	mcp := toolclient.New(cfg, opts...)
	return &Client{mcp: mcp, cfg: mcp.Config()}
}

// NewFromEnv builds a client from PROM_MCP_* variables.
func NewFromEnv(opts ...toolclient.Option) *Client {
	return New(ConfigFromEnv(), opts...)
}

// MCP exposes the underlying generic client.
func (c *Client) MCP() *toolclient.Client {
	return c.mcp
}

// QueryRange runs a PromQL range query. Empty start, end or step are
// omitted.
func (c *Client) QueryRange(ctx context.Context, promql, start, end, step string) string {
	candidates := toolclient.Candidates(c.cfg.ToolOverride(ToolRange), "execute_range_query", "range_query")
	return c.mcp.Invoke(ctx, "range query", candidates, map[string]any{
		"query": promql,
		"start": toolclient.OmitZero(start),
		"end":   toolclient.OmitZero(end),
		"step":  toolclient.OmitZero(step),
	})
}

// QueryInstant runs a PromQL instant query at ts, or now when ts is empty.
func (c *Client) QueryInstant(ctx context.Context, promql, ts string) string {
	candidates := toolclient.Candidates(c.cfg.ToolOverride(ToolQuery), "execute_query", "query")
	return c.mcp.Invoke(ctx, "instant query", candidates, map[string]any{
		"query": promql,
		"time":  toolclient.OmitZero(ts),
	})
}

// ListTargets lists scrape targets.
func (c *Client) ListTargets(ctx context.Context) string {
	candidates := toolclient.Candidates(c.cfg.ToolOverride(ToolTargets), "prometheus_targets", "targets", "get_targets")
	return c.mcp.Invoke(ctx, "scrape targets", candidates, nil)
}

// ListMetrics lists metric names. Zero values are omitted.
func (c *Client) ListMetrics(ctx context.Context, limit, offset int, filterPattern string) string {
	return c.mcp.Invoke(ctx, "metric list", []string{"list_metrics"}, map[string]any{
		"limit":          toolclient.OmitZero(limit),
		"offset":         toolclient.OmitZero(offset),
		"filter_pattern": toolclient.OmitZero(filterPattern),
	})
}

// Metadata returns metric metadata, for one metric or all of them.
func (c *Client) Metadata(ctx context.Context, metric string) string {
	candidates := toolclient.Candidates(c.cfg.ToolOverride(ToolMetadata), "prometheus_metadata", "metadata", "get_metric_metadata")
	return c.mcp.Invoke(ctx, "metadata", candidates, map[string]any{
		"metric": toolclient.OmitZero(metric),
	})
}

func (c *Client) HealthCheck(ctx context.Context) string {
	return c.mcp.Invoke(ctx, "health check", []string{"health_check"}, nil)
}
