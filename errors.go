package toolclient

import (
	"fmt"
)

// ConfigError reports a missing or unusable setting. It is raised before any
// network activity and is never retried.
type ConfigError struct {
	Setting string
	Reason  string
}

func (e *ConfigError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is not configured", e.Setting)
	}
	return fmt.Sprintf("%s: %s", e.Setting, e.Reason)
}

// FailureMessage is the string public operations return when a call fails.
func FailureMessage(tool string, err error) string {
	return fmt.Sprintf("call %s failed: %v", tool, err)
}

// UnavailableMessage is returned when no candidate tool name matches the
// discovered tools. kind is a short noun such as "range query".
func UnavailableMessage(kind string) string {
	return fmt.Sprintf("no %s tool available on this MCP server", kind)
}
