package mcp

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	mcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deep-sre-agent/go-toolclient/src/tools"
	"github.com/deep-sre-agent/go-toolclient/src/transports"
)

func newDemoServer() *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer("demo", "1.0.0")
	hello := mcp.NewTool("hello", mcp.WithString("name"))
	srv.AddTool(hello, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name := cast.ToString(req.GetArguments()["name"])
		if name == "" {
			name = "World"
		}
		return mcp.NewToolResultText(fmt.Sprintf("Hello, %s!", name)), nil
	})
	rangeQuery := mcp.NewTool("execute_range_query",
		mcp.WithString("query", mcp.Required()),
		mcp.WithString("start"),
		mcp.WithString("end"),
		mcp.WithString("step"),
	)
	srv.AddTool(rangeQuery, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(cast.ToString(req.GetArguments()["query"])), nil
	})
	return srv
}

func endpoint(mode transports.Mode, url string) transports.Endpoint {
	return transports.Endpoint{
		Mode:    mode,
		URL:     url,
		Headers: map[string]string{"X-Test": "1"},
		Timeout: 5 * time.Second,
		Logger:  func(string, ...interface{}) {},
	}
}

func exercise(t *testing.T, s transports.Session) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	payload, err := s.ListTools(ctx)
	require.NoError(t, err)
	list, err := tools.ParseToolList(payload)
	require.NoError(t, err)
	names := []string{}
	for _, tl := range list {
		names = append(names, tl.Name)
	}
	assert.ElementsMatch(t, []string{"hello", "execute_range_query"}, names)
	for _, tl := range list {
		if tl.Name == "execute_range_query" {
			assert.Equal(t, []string{"end", "query", "start", "step"}, tl.PropertyNames())
		}
	}

	res, err := s.CallTool(ctx, "hello", map[string]any{"name": "Go"})
	require.NoError(t, err)
	m, ok := res.(map[string]any)
	require.True(t, ok, "expected map result, got %T", res)
	content, ok := m["content"].([]any)
	require.True(t, ok)
	require.Len(t, content, 1)
	assert.Equal(t, "Hello, Go!", content[0].(map[string]any)["text"])
}

func TestStreamableHTTPSession(t *testing.T) {
	ts := httptest.NewServer(mcpserver.NewStreamableHTTPServer(newDemoServer()))
	defer ts.Close()

	s, err := DialStreamableHTTP(context.Background(), endpoint(transports.ModeStreamableHTTP, ts.URL+"/mcp"))
	require.NoError(t, err)
	defer s.Close()
	exercise(t, s)
}

func TestSSESession(t *testing.T) {
	ts := mcpserver.NewTestServer(newDemoServer())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := DialSSE(ctx, endpoint(transports.ModeEventStream, ts.URL+"/sse"))
	require.NoError(t, err)
	defer s.Close()
	exercise(t, s)
}

func TestSSESession_UnreachableFailsOnDial(t *testing.T) {
	ts := mcpserver.NewTestServer(newDemoServer())
	url := ts.URL + "/sse"
	ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := DialSSE(ctx, endpoint(transports.ModeEventStream, url))
	assert.Error(t, err)
}
