package tools

import (
	"errors"
	"fmt"
	"sort"
)

// ToolInputSchema mirrors the JSON schema a tool server declares for a tool's
// arguments. Raw keeps the schema exactly as received so validation sees the
// same document the server published.
type ToolInputSchema struct {
	Type       string         `json:"type,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Required   []string       `json:"required,omitempty"`
	Raw        map[string]any `json:"-"`
}

// Tool holds the metadata discovered for a single remote tool.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Inputs      ToolInputSchema `json:"inputs"`
	HasSchema   bool            `json:"-"`
}

// PropertyNames returns the declared argument names, sorted.
func (t Tool) PropertyNames() []string {
	names := make([]string, 0, len(t.Inputs.Properties))
	for k := range t.Inputs.Properties {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Declares reports whether the schema lists name as a property.
func (t Tool) Declares(name string) bool {
	_, ok := t.Inputs.Properties[name]
	return ok
}

// schemaKeys are the aliases under which servers publish a tool's input
// schema; the first non-empty one wins.
var schemaKeys = []string{"input_schema", "inputSchema"}

// ErrMalformedToolList is returned when a tools/list payload is neither a
// list nor an object carrying a "tools" list.
var ErrMalformedToolList = errors.New("malformed tool list")

// ParseToolList decodes a generic tools/list payload. It accepts either
// {"tools": [...]} or a bare list. Entries without a string name are skipped.
func ParseToolList(payload any) ([]Tool, error) {
	var entries []any
	switch v := payload.(type) {
	case map[string]any:
		raw, ok := v["tools"]
		if !ok || raw == nil {
			return []Tool{}, nil
		}
		list, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: tools field is %T", ErrMalformedToolList, raw)
		}
		entries = list
	case []any:
		entries = v
	case nil:
		return []Tool{}, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrMalformedToolList, payload)
	}

	out := make([]Tool, 0, len(entries))
	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		name, ok := m["name"].(string)
		if !ok {
			continue
		}
		t := Tool{Name: name}
		if d, ok := m["description"].(string); ok {
			t.Description = d
		}
		if schema := pickSchema(m); schema != nil {
			t.Inputs = schemaFromMap(schema)
			t.HasSchema = true
		}
		out = append(out, t)
	}
	return out, nil
}

func pickSchema(entry map[string]any) map[string]any {
	for _, k := range schemaKeys {
		if s, ok := entry[k].(map[string]any); ok && !blankSchema(s) {
			return s
		}
	}
	return nil
}

// blankSchema reports whether s carries neither a type nor properties. mcp-go
// lists tools without a schema as {"type": ""}.
func blankSchema(s map[string]any) bool {
	typ, _ := s["type"].(string)
	props, _ := s["properties"].(map[string]any)
	return typ == "" && len(props) == 0
}

func schemaFromMap(m map[string]any) ToolInputSchema {
	s := ToolInputSchema{Raw: m}
	s.Type, _ = m["type"].(string)
	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = props
	}
	if req, ok := m["required"].([]any); ok {
		for _, r := range req {
			if name, ok := r.(string); ok {
				s.Required = append(s.Required, name)
			}
		}
	}
	return s
}
