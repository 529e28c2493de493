package toolclient

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/deep-sre-agent/go-toolclient/src/json"
	"github.com/deep-sre-agent/go-toolclient/src/transports"
)

// DefaultTimeout is the per-call timeout used when none is configured.
const DefaultTimeout = 30 * time.Second

// Endpoints lists the URL for each transport. The URL matching the
// configured mode is the primary one; PlainHTTP doubles as the fallback for
// the event-stream transport.
type Endpoints struct {
	StreamableHTTP string `mapstructure:"streamable_url"`
	EventStream    string `mapstructure:"sse_url"`
	PlainHTTP      string `mapstructure:"url"`
}

// ClientConfig holds everything a client needs to reach one tool server.
// A client copies it at construction and never mutates its copy.
type ClientConfig struct {
	// Service names the client in logs, e.g. "prometheus_mcp".
	Service string
	// EnvPrefix is used to name missing settings in errors, e.g. "LOKI_MCP".
	EnvPrefix string
	Mode      transports.Mode
	Endpoints Endpoints
	Headers   map[string]string
	Timeout   time.Duration
	LogLevel  string
	Verbose   bool
	// Tools maps an operation key ("query", "range", ...) to a preferred
	// tool name.
	Tools map[string]string
	// Warnings collects problems found while loading the configuration.
	// They are logged once the client's sink exists.
	Warnings []string
}

// URLFor returns the configured URL for mode m.
func (c ClientConfig) URLFor(m transports.Mode) string {
	switch m {
	case transports.ModeEventStream:
		return c.Endpoints.EventStream
	case transports.ModeStreamableHTTP:
		return c.Endpoints.StreamableHTTP
	case transports.ModePlainHTTP:
		return c.Endpoints.PlainHTTP
	}
	return ""
}

// Setting names the configuration entry holding the URL for mode m.
func (c ClientConfig) Setting(m transports.Mode) string {
	key := map[transports.Mode]string{
		transports.ModeEventStream:    "SSE_URL",
		transports.ModeStreamableHTTP: "STREAMABLE_URL",
		transports.ModePlainHTTP:      "URL",
	}[m]
	if key == "" {
		key = "MODE"
	}
	return c.settingName(key)
}

func (c ClientConfig) settingName(key string) string {
	if c.EnvPrefix == "" {
		return strings.ToLower(key)
	}
	return c.EnvPrefix + "_" + key
}

// ToolOverride returns the preferred tool name for an operation key, or "".
func (c ClientConfig) ToolOverride(key string) string {
	return c.Tools[key]
}

func (c ClientConfig) clone() ClientConfig {
	out := c
	out.Headers = make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		out.Headers[k] = v
	}
	out.Tools = make(map[string]string, len(c.Tools))
	for k, v := range c.Tools {
		out.Tools[k] = v
	}
	out.Warnings = append([]string(nil), c.Warnings...)
	return out
}

// LoadDotEnv loads variables from .env files into the process environment
// without overriding variables that are already set. Missing files are not
// an error.
func LoadDotEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := godotenv.Read(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ConfigFromEnv reads <PREFIX>_* environment variables over defaults.
// toolKeys lists the operation keys whose <PREFIX>_TOOL_<KEY> overrides
// should be read.
func ConfigFromEnv(prefix string, defaults ClientConfig, toolKeys ...string) ClientConfig {
	return ConfigFromViper(viper.New(), prefix, defaults, toolKeys...)
}

// ConfigFromViper reads settings from v (a config file section, if any) and
// from <PREFIX>_* environment variables. Empty values keep the defaults.
func ConfigFromViper(v *viper.Viper, prefix string, defaults ClientConfig, toolKeys ...string) ClientConfig {
	if v == nil {
		v = viper.New()
	}
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := defaults.clone()
	cfg.EnvPrefix = prefix
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if raw := v.GetString("mode"); raw != "" {
		if m, err := transports.ParseMode(raw); err == nil {
			cfg.Mode = m
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("%s_MODE ignored: %v", prefix, err))
		}
	}
	if s := strings.TrimRight(v.GetString("sse_url"), "/"); s != "" {
		cfg.Endpoints.EventStream = s
	}
	if s := strings.TrimRight(v.GetString("url"), "/"); s != "" {
		cfg.Endpoints.PlainHTTP = s
	}
	if s := strings.TrimRight(v.GetString("streamable_url"), "/"); s != "" {
		cfg.Endpoints.StreamableHTTP = s
	} else if cfg.Mode == transports.ModeStreamableHTTP && v.GetString("url") != "" {
		cfg.Endpoints.StreamableHTTP = cfg.Endpoints.PlainHTTP
	}

	if raw := v.Get("headers"); raw != nil {
		headers, err := parseHeaders(raw)
		if err != nil {
			cfg.Headers = map[string]string{}
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("%s_HEADERS could not be parsed and was ignored: %v", prefix, err))
		} else if headers != nil {
			cfg.Headers = headers
		}
	}

	if raw := v.GetString("timeout"); raw != "" {
		if d, err := parseTimeout(raw); err == nil && d > 0 {
			cfg.Timeout = d
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("%s_TIMEOUT %q ignored", prefix, raw))
		}
	}
	if s := v.GetString("log_level"); s != "" {
		cfg.LogLevel = s
	}
	if s := v.GetString("log_verbose"); s != "" {
		cfg.Verbose = parseFlag(s)
	}
	for _, key := range toolKeys {
		if s := v.GetString("tool." + key); s != "" {
			cfg.Tools[key] = s
		}
	}
	return cfg
}

// ParseHeaders decodes a JSON object of static headers. Non-string values
// are converted to strings.
func ParseHeaders(raw string) (map[string]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return cast.ToStringMapStringE(m)
}

func parseHeaders(raw any) (map[string]string, error) {
	switch h := raw.(type) {
	case string:
		return ParseHeaders(h)
	case map[string]any, map[string]string:
		return cast.ToStringMapStringE(h)
	}
	return nil, fmt.Errorf("unsupported headers value %T", raw)
}

// parseTimeout accepts plain seconds ("30", "2.5") or a Go duration ("45s").
func parseTimeout(raw string) (time.Duration, error) {
	if secs, err := cast.ToFloat64E(raw); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(raw)
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
