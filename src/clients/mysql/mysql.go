// Package mysql is the client for a MySQL MCP server over streamable HTTP.
package mysql

import (
	"context"
	"fmt"

	toolclient "github.com/deep-sre-agent/go-toolclient"
	"github.com/deep-sre-agent/go-toolclient/src/transports"
)

const (
	Service    = "mysql_mcp"
	EnvPrefix  = "MYSQL_MCP"
	DefaultURL = "http://localhost:18081/mcp"
)

// Tool override keys, read from MYSQL_MCP_TOOL_<KEY>.
const (
	ToolQuery         = "query"
	ToolExecute       = "execute"
	ToolSearchObjects = "search_objects"
)

const (
	DefaultSearchLimit = 100
	MaxSearchLimit     = 1000
)

var (
	objectTypes  = map[string]bool{"schema": true, "table": true, "column": true, "procedure": true, "index": true}
	detailLevels = map[string]bool{"names": true, "summary": true, "full": true}
)

func DefaultConfig() toolclient.ClientConfig {
	return toolclient.ClientConfig{
		Service:   Service,
		EnvPrefix: EnvPrefix,
		Mode:      transports.ModeStreamableHTTP,
		Endpoints: toolclient.Endpoints{StreamableHTTP: DefaultURL},
		Timeout:   toolclient.DefaultTimeout,
	}
}

// ConfigFromEnv reads MYSQL_MCP_* over DefaultConfig.
func ConfigFromEnv() toolclient.ClientConfig {
	return toolclient.ConfigFromEnv(EnvPrefix, DefaultConfig(), ToolQuery, ToolExecute, ToolSearchObjects)
}

type Client struct {
	mcp *toolclient.Client
	cfg toolclient.ClientConfig
}

// New builds a client. The mode is forced to streamable HTTP.
func New(cfg toolclient.ClientConfig, opts ...toolclient.Option) *Client {
	cfg.Mode = transports.ModeStreamableHTTP
	mcp := toolclient.New(cfg, opts...)
	return &Client{mcp: mcp, cfg: mcp.Config()}
}

func NewFromEnv(opts ...toolclient.Option) *Client {
	return New(ConfigFromEnv(), opts...)
}

func (c *Client) MCP() *toolclient.Client {
	return c.mcp
}

// Execute runs one SQL statement.
func (c *Client) Execute(ctx context.Context, sql string) string {
	candidates := toolclient.Candidates(c.cfg.ToolOverride(ToolExecute), "execute_sql")
	return c.mcp.Invoke(ctx, "execute", candidates, map[string]any{"sql": sql})
}

// Query runs a read-only SQL statement.
func (c *Client) Query(ctx context.Context, sql string) string {
	candidates := toolclient.Candidates(c.cfg.ToolOverride(ToolQuery), "execute_sql")
	return c.mcp.Invoke(ctx, "query", candidates, map[string]any{"sql": sql})
}

// SearchObjects searches schema objects by name pattern.
//
// objectType must be one of schema, table, column, procedure or index. An
// unknown detailLevel falls back to "names". A nil limit means
// DefaultSearchLimit; any other value is clamped to [1, MaxSearchLimit].
func (c *Client) SearchObjects(ctx context.Context, objectType, pattern, schema, detailLevel string, limit *int) string {
	if !objectTypes[objectType] {
		return fmt.Sprintf("unsupported object_type %q", objectType)
	}
	if !detailLevels[detailLevel] {
		detailLevel = "names"
	}
	if pattern == "" {
		pattern = "%"
	}
	candidates := toolclient.Candidates(c.cfg.ToolOverride(ToolSearchObjects), "search_objects")
	return c.mcp.Invoke(ctx, "object search", candidates, map[string]any{
		"object_type":  objectType,
		"pattern":      pattern,
		"schema":       toolclient.OmitZero(schema),
		"detail_level": detailLevel,
		"limit":        clampLimit(limit),
	})
}

func clampLimit(limit *int) int {
	switch {
	case limit == nil:
		return DefaultSearchLimit
	case *limit < 1:
		return 1
	case *limit > MaxSearchLimit:
		return MaxSearchLimit
	}
	return *limit
}
