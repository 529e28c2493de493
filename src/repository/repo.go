package repository

import (
	"sync"

	. "github.com/deep-sre-agent/go-toolclient/src/tools"
)

// CapabilityCache is the in-memory record of what one tool server exposes.
// It is populated at most once: a failed discovery still marks the cache as
// discovered, with no tools, so callers fall back to best-effort matching.
type CapabilityCache struct {
	discovered bool
	names      []string        // discovery order
	tools      map[string]Tool // name -> tool
	mu         sync.RWMutex
}

func NewCapabilityCache() *CapabilityCache {
	return &CapabilityCache{tools: make(map[string]Tool)}
}

// Discovered reports whether a discovery attempt has completed.
func (c *CapabilityCache) Discovered() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.discovered
}

// SaveTools records the result of a successful discovery. Only the first
// call has any effect. Duplicate names keep their first position and the
// last schema seen.
func (c *CapabilityCache) SaveTools(tools []Tool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.discovered {
		return false
	}
	for _, t := range tools {
		if _, seen := c.tools[t.Name]; !seen {
			c.names = append(c.names, t.Name)
		}
		c.tools[t.Name] = t
	}
	c.discovered = true
	return true
}

// MarkFailed records a failed discovery: the cache becomes discovered and
// empty.
func (c *CapabilityCache) MarkFailed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.discovered {
		return false
	}
	c.names = nil
	c.tools = make(map[string]Tool)
	c.discovered = true
	return true
}

// ToolNames returns the discovered tool names in discovery order.
func (c *CapabilityCache) ToolNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// GetTools returns the discovered tools in discovery order.
func (c *CapabilityCache) GetTools() []Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Tool, 0, len(c.names))
	for _, n := range c.names {
		out = append(out, c.tools[n])
	}
	return out
}

// GetTool looks up a discovered tool by exact name.
func (c *CapabilityCache) GetTool(name string) (Tool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tools[name]
	return t, ok
}

// MatchTool resolves the first usable name among candidates.
//
// With no known tools the first non-empty candidate is returned verbatim, so
// servers without discovery stay usable. Otherwise only exact matches count
// and ok is false when none of the candidates is exposed.
func (c *CapabilityCache) MatchTool(candidates ...string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.names) == 0 {
		for _, cand := range candidates {
			if cand != "" {
				return cand, true
			}
		}
		return "", false
	}
	for _, cand := range candidates {
		if _, ok := c.tools[cand]; ok {
			return cand, true
		}
	}
	return "", false
}

// FilterArgs drops nil values and, when the tool declares properties, every
// key the schema does not list. An empty tool name yields an empty map.
func (c *CapabilityCache) FilterArgs(toolName string, args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	if toolName == "" {
		return out
	}
	t, _ := c.GetTool(toolName)
	allowed := len(t.Inputs.Properties) > 0
	for k, v := range args {
		if v == nil || isNilValue(v) {
			continue
		}
		if allowed && !t.Declares(k) {
			continue
		}
		out[k] = v
	}
	return out
}
