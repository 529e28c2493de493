package toolclient

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deep-sre-agent/go-toolclient/src/transports"
)

func TestConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("TEST_MCP_MODE", "streamable")
	t.Setenv("TEST_MCP_STREAMABLE_URL", "http://tools.test/mcp/")
	t.Setenv("TEST_MCP_HEADERS", `{"Authorization":"Bearer abc","X-Retry":3}`)
	t.Setenv("TEST_MCP_TIMEOUT", "2.5")
	t.Setenv("TEST_MCP_LOG_VERBOSE", "yes")
	t.Setenv("TEST_MCP_TOOL_QUERY", "run_query")

	cfg := ConfigFromEnv("TEST_MCP", ClientConfig{Service: "test_mcp", Mode: transports.ModeEventStream}, "query", "range")

	assert.Equal(t, transports.ModeStreamableHTTP, cfg.Mode)
	assert.Equal(t, "http://tools.test/mcp", cfg.Endpoints.StreamableHTTP)
	assert.Equal(t, map[string]string{"Authorization": "Bearer abc", "X-Retry": "3"}, cfg.Headers)
	assert.Equal(t, 2500*time.Millisecond, cfg.Timeout)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "run_query", cfg.ToolOverride("query"))
	assert.Empty(t, cfg.ToolOverride("range"))
	assert.Empty(t, cfg.Warnings)
	assert.Equal(t, "test_mcp", cfg.Service)
}

func TestConfigFromEnv_DefaultsKept(t *testing.T) {
	defaults := ClientConfig{
		Mode:      transports.ModeEventStream,
		Endpoints: Endpoints{EventStream: "http://localhost:7080/sse"},
	}
	cfg := ConfigFromEnv("UNSET_MCP", defaults)
	assert.Equal(t, transports.ModeEventStream, cfg.Mode)
	assert.Equal(t, "http://localhost:7080/sse", cfg.Endpoints.EventStream)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, "UNSET_MCP_SSE_URL", cfg.Setting(transports.ModeEventStream))
}

func TestConfigFromEnv_URLServesStreamableMode(t *testing.T) {
	t.Setenv("PROMX_MCP_URL", "http://prom.test:18090/mcp")
	cfg := ConfigFromEnv("PROMX_MCP", ClientConfig{Mode: transports.ModeStreamableHTTP})
	assert.Equal(t, "http://prom.test:18090/mcp", cfg.Endpoints.StreamableHTTP)
}

func TestConfigFromEnv_MalformedValuesWarn(t *testing.T) {
	t.Setenv("BAD_MCP_HEADERS", "{not json")
	t.Setenv("BAD_MCP_MODE", "carrier-pigeon")
	t.Setenv("BAD_MCP_TIMEOUT", "soon")

	cfg := ConfigFromEnv("BAD_MCP", ClientConfig{
		Mode:    transports.ModePlainHTTP,
		Headers: map[string]string{"X-Default": "1"},
	})
	assert.Empty(t, cfg.Headers)
	assert.Equal(t, transports.ModePlainHTTP, cfg.Mode)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Len(t, cfg.Warnings, 3)
}

func TestConfigFromViper_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mysql:
  mode: streamable-http
  streamable_url: http://db.test/mcp
  timeout: 45s
  headers:
    X-Tenant: ops
  tool:
    query: run_sql
`), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg := ConfigFromViper(v.Sub("mysql"), "FILE_MCP", ClientConfig{}, "query")
	assert.Equal(t, transports.ModeStreamableHTTP, cfg.Mode)
	assert.Equal(t, "http://db.test/mcp", cfg.Endpoints.StreamableHTTP)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, "ops", cfg.Headers["x-tenant"])
	assert.Equal(t, "run_sql", cfg.ToolOverride("query"))
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DOTENV_MCP_SSE_URL=http://from.env/sse\n"), 0o600))
	t.Setenv("DOTENV_MCP_SSE_URL", "")
	os.Unsetenv("DOTENV_MCP_SSE_URL")

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), path))
	cfg := ConfigFromEnv("DOTENV_MCP", ClientConfig{})
	assert.Equal(t, "http://from.env/sse", cfg.Endpoints.EventStream)
}

func TestParseHeaders(t *testing.T) {
	h, err := ParseHeaders("")
	require.NoError(t, err)
	assert.Nil(t, h)

	_, err = ParseHeaders("[1,2]")
	assert.Error(t, err)
}
