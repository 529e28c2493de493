package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"

	toolclient "github.com/deep-sre-agent/go-toolclient"
	"github.com/deep-sre-agent/go-toolclient/src/clients/deepwiki"
	"github.com/deep-sre-agent/go-toolclient/src/clients/logs"
	"github.com/deep-sre-agent/go-toolclient/src/clients/mysql"
	"github.com/deep-sre-agent/go-toolclient/src/clients/prometheus"
)

// service describes how to build the generic client behind one facade.
type service struct {
	prefix   string
	defaults func() toolclient.ClientConfig
	toolKeys []string
	build    func(cfg toolclient.ClientConfig, opts ...toolclient.Option) *toolclient.Client
}

var services = map[string]service{
	"loki": {
		prefix:   logs.EnvPrefix,
		defaults: logs.DefaultConfig,
		toolKeys: []string{logs.ToolQuery},
		build: func(cfg toolclient.ClientConfig, opts ...toolclient.Option) *toolclient.Client {
			return logs.New(cfg, opts...).MCP()
		},
	},
	"mysql": {
		prefix:   mysql.EnvPrefix,
		defaults: mysql.DefaultConfig,
		toolKeys: []string{mysql.ToolQuery, mysql.ToolExecute, mysql.ToolSearchObjects},
		build: func(cfg toolclient.ClientConfig, opts ...toolclient.Option) *toolclient.Client {
			return mysql.New(cfg, opts...).MCP()
		},
	},
	"prometheus": {
		prefix:   prometheus.EnvPrefix,
		defaults: prometheus.DefaultConfig,
		toolKeys: []string{prometheus.ToolQuery, prometheus.ToolRange, prometheus.ToolTargets, prometheus.ToolMetadata},
		build: func(cfg toolclient.ClientConfig, opts ...toolclient.Option) *toolclient.Client {
			return prometheus.New(cfg, opts...).MCP()
		},
	},
	"deepwiki": {
		prefix:   deepwiki.EnvPrefix,
		defaults: deepwiki.DefaultConfig,
		build: func(cfg toolclient.ClientConfig, opts ...toolclient.Option) *toolclient.Client {
			return deepwiki.New(cfg, "", opts...).MCP()
		},
	},
}

func serviceNames() []string {
	names := make([]string, 0, len(services))
	for n := range services {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// newClient builds the client for name. Settings come from the service's
// section of the config file, overridden by its environment variables.
func newClient(name string, opts ...toolclient.Option) (*toolclient.Client, error) {
	svc, ok := services[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown service %q (known: %s)", name, strings.Join(serviceNames(), ", "))
	}
	section := viper.Sub(strings.ToLower(name))
	cfg := toolclient.ConfigFromViper(section, svc.prefix, svc.defaults(), svc.toolKeys...)
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return svc.build(cfg, opts...), nil
}
