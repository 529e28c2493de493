package mcp

import (
	"context"
	"fmt"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcpapi "github.com/mark3labs/mcp-go/mcp"

	"github.com/deep-sre-agent/go-toolclient/src/json"
	"github.com/deep-sre-agent/go-toolclient/src/transports"
)

// ClientName and ClientVersion identify this client during the handshake.
const (
	ClientName    = "go-toolclient"
	ClientVersion = "1.0.0"
)

// maxListPages bounds tools/list pagination against servers that keep
// returning cursors.
const maxListPages = 64

// MCPSession is a transports.Session backed by an mcp-go client. It is used
// for every transport mode.
type MCPSession struct {
	client *mcpclient.Client
	mode   transports.Mode
	url    string
	logger func(format string, args ...interface{})
}

// DialStreamableHTTP opens a streamable HTTP session.
func DialStreamableHTTP(ctx context.Context, ep transports.Endpoint) (transports.Session, error) {
	cli, err := mcpclient.NewStreamableHttpClient(ep.URL, httpOptions(ep)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP streamable HTTP client: %w", err)
	}
	return start(ctx, cli, ep)
}

// DialHTTP opens a plain HTTP session: every request is a single POST whose
// reply is either a JSON body or a short event stream, and no standing GET
// stream is opened. It is the fallback when the event-stream endpoint is
// unreachable.
func DialHTTP(ctx context.Context, ep transports.Endpoint) (transports.Session, error) {
	cli, err := mcpclient.NewStreamableHttpClient(ep.URL, httpOptions(ep)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP plain HTTP client: %w", err)
	}
	return start(ctx, cli, ep)
}

func httpOptions(ep transports.Endpoint) []transport.StreamableHTTPCOption {
	opts := []transport.StreamableHTTPCOption{}
	if len(ep.Headers) > 0 {
		opts = append(opts, transport.WithHTTPHeaders(ep.Headers))
	}
	if ep.Timeout > 0 {
		opts = append(opts, transport.WithHTTPTimeout(ep.Timeout))
	}
	return opts
}

// DialSSE opens an SSE session. The event stream is connected before this
// returns, so an unreachable server fails here.
func DialSSE(ctx context.Context, ep transports.Endpoint) (transports.Session, error) {
	opts := []transport.ClientOption{}
	if len(ep.Headers) > 0 {
		opts = append(opts, transport.WithHeaders(ep.Headers))
	}
	cli, err := mcpclient.NewSSEMCPClient(ep.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP SSE client: %w", err)
	}
	return start(ctx, cli, ep)
}

func start(ctx context.Context, cli *mcpclient.Client, ep transports.Endpoint) (transports.Session, error) {
	if err := cli.Start(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to start MCP %s client: %w", ep.Mode, err)
	}
	s := &MCPSession{client: cli, mode: ep.Mode, url: ep.URL, logger: ep.Logger}
	cli.OnNotification(func(n mcpapi.JSONRPCNotification) {
		s.logger("MCP notification method=%s url=%s", n.Method, s.url)
	})
	s.logger("MCP %s connected url=%s", s.mode, s.url)
	return s, nil
}

// Initialize performs the MCP handshake.
func (s *MCPSession) Initialize(ctx context.Context) error {
	initReq := mcpapi.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcpapi.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcpapi.Implementation{Name: ClientName, Version: ClientVersion}
	res, err := s.client.Initialize(ctx, initReq)
	if err != nil {
		return fmt.Errorf("failed to initialize MCP client: %w", err)
	}
	s.logger("MCP initialized server=%s/%s protocol=%s", res.ServerInfo.Name, res.ServerInfo.Version, res.ProtocolVersion)
	return nil
}

// ListTools fetches every page of tools/list.
func (s *MCPSession) ListTools(ctx context.Context) (any, error) {
	var all []mcpapi.Tool
	req := mcpapi.ListToolsRequest{}
	seen := map[mcpapi.Cursor]bool{}
	for page := 0; page < maxListPages; page++ {
		res, err := s.client.ListTools(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to list tools: %w", err)
		}
		all = append(all, res.Tools...)
		if res.NextCursor == "" || seen[res.NextCursor] {
			break
		}
		seen[res.NextCursor] = true
		req.Params.Cursor = res.NextCursor
	}
	s.logger("MCP tools/list returned %d tools", len(all))
	return json.Roundtrip(map[string]any{"tools": all})
}

// CallTool invokes name and returns the result in generic JSON form.
func (s *MCPSession) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	req := mcpapi.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := s.client.CallTool(ctx, req)
	if err != nil {
		return nil, err
	}
	out, err := json.Roundtrip(res)
	if err != nil {
		return nil, fmt.Errorf("failed to decode result of %s: %w", name, err)
	}
	return out, nil
}

// Close releases the underlying MCP client.
func (s *MCPSession) Close() error {
	return s.client.Close()
}
