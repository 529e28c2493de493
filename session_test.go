package toolclient

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deep-sre-agent/go-toolclient/src/json"
	"github.com/deep-sre-agent/go-toolclient/src/logging"
	"github.com/deep-sre-agent/go-toolclient/src/transports"
)

// maxLogged is logging.MaxMessage plus the "..." truncation mark.
const maxLogged = logging.MaxMessage + 3

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		out = append(out, entry)
	}
	return out
}

func linesWith(entries []map[string]any, message string) []map[string]any {
	var out []map[string]any
	for _, e := range entries {
		if e["message"] == message {
			out = append(out, e)
		}
	}
	return out
}

func failingLokiClient(buf *bytes.Buffer) *Client {
	sse := &stubServer{dialErr: errors.New("sse refused: " + strings.Repeat("x", 5000))}
	plain := &stubServer{dialErr: errors.New("http refused: " + strings.Repeat("y", 5000))}
	cfg := ClientConfig{
		Service:   "loki_mcp",
		EnvPrefix: "LOKI_MCP",
		Mode:      transports.ModeEventStream,
		Endpoints: Endpoints{EventStream: "http://loki.test/sse", PlainHTTP: "http://loki.test/mcp"},
	}
	return New(cfg,
		WithLogger(logging.New(logging.Options{Service: "loki_mcp", Level: "debug", Writer: buf})),
		WithRegistry(transports.Registry{
			transports.ModeEventStream: sse.dial,
			transports.ModePlainHTTP:   plain.dial,
		}),
	)
}

func TestCallErrorLogging(t *testing.T) {
	var buf bytes.Buffer
	c := failingLokiClient(&buf)

	_, err := c.Call(context.Background(), "loki_query", map[string]any{"query": strings.Repeat("q", 5000)})
	require.Error(t, err)
	entries := logLines(t, &buf)

	top := linesWith(entries, "MCP call tool error")
	require.Len(t, top, 1)
	assert.Equal(t, "error", top[0]["level"])
	assert.Equal(t, "loki_mcp", top[0]["service"])
	assert.Equal(t, "loki_query", top[0]["name"])
	assert.Equal(t, "*errors.joinError", top[0]["type"])
	msg := top[0]["error"].(string)
	assert.LessOrEqual(t, len(msg), maxLogged)
	assert.True(t, strings.HasSuffix(msg, "..."))
	assert.NotEmpty(t, top[0]["call_id"])

	subs := linesWith(entries, "MCP sub-error")
	require.Len(t, subs, 2)
	for i, sub := range subs {
		assert.EqualValues(t, i, sub["index"])
		assert.Equal(t, "*fmt.wrapError", sub["type"])
		assert.LessOrEqual(t, len(sub["error"].(string)), maxLogged)
		assert.Equal(t, top[0]["call_id"], sub["call_id"])
	}
	assert.Contains(t, subs[0]["error"], "sse refused")
	assert.Contains(t, subs[1]["error"], "http refused")

	args := linesWith(entries, "MCP call tool args")
	require.Len(t, args, 1)
	preview := args[0]["args"].(string)
	assert.LessOrEqual(t, len(preview), maxLogged)
	assert.True(t, strings.HasPrefix(preview, `{"query":"qqq`))
}

func TestCallErrorLogging_NoArgsLine(t *testing.T) {
	var buf bytes.Buffer
	c := failingLokiClient(&buf)

	_, err := c.Call(context.Background(), "loki_query", nil)
	require.Error(t, err)
	entries := logLines(t, &buf)
	assert.Len(t, linesWith(entries, "MCP call tool error"), 1)
	assert.Empty(t, linesWith(entries, "MCP call tool args"))
}

func TestDiscoveryFailureLogIsTruncated(t *testing.T) {
	var buf bytes.Buffer
	c := failingLokiClient(&buf)

	c.EnsureDiscovered(context.Background())
	entries := logLines(t, &buf)

	warn := linesWith(entries, "MCP tool discovery failed, continuing without tool list")
	require.Len(t, warn, 1)
	assert.Equal(t, "warn", warn[0]["level"])
	msg := warn[0]["error"].(string)
	assert.LessOrEqual(t, len(msg), maxLogged)
	assert.Contains(t, msg, "sse refused")

	// the tools/list failure is logged like any other call
	top := linesWith(entries, "MCP call tool error")
	require.Len(t, top, 1)
	assert.Equal(t, "tools/list", top[0]["name"])
}
