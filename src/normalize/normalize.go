// Package normalize turns the heterogeneous payloads returned by tool servers
// into one deterministic string.
package normalize

import (
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/panics"

	"github.com/deep-sre-agent/go-toolclient/src/json"
)

// Kind discriminates the shapes a tool result can take.
type Kind int

const (
	KindText Kind = iota
	KindItemList
	KindObject
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindItemList:
		return "items"
	case KindObject:
		return "object"
	default:
		return "opaque"
	}
}

// Content is a classified payload. Exactly one of the fields matching Kind
// is meaningful.
type Content struct {
	Kind   Kind
	Text   string
	Items  []any
	Object map[string]any
	Value  any
}

// textKeys are the fields an object may use to carry its textual payload,
// in lookup order.
var textKeys = []string{"text", "content"}

// Hook rewrites a generic JSON value right before it is serialized.
type Hook func(any) any

// Classify sorts v into one of the content variants. Structs and typed
// collections are first converted to their generic JSON form.
func Classify(v any) Content {
	switch x := v.(type) {
	case string:
		return Content{Kind: KindText, Text: x}
	case []any:
		return Content{Kind: KindItemList, Items: x}
	case []string:
		items := make([]any, len(x))
		for i, s := range x {
			items[i] = s
		}
		return Content{Kind: KindItemList, Items: items}
	case map[string]any:
		return Content{Kind: KindObject, Object: x}
	case nil, bool, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return Content{Kind: KindOpaque, Value: x}
	}
	generic, err := json.Roundtrip(v)
	if err != nil {
		return Content{Kind: KindOpaque, Value: v}
	}
	switch generic.(type) {
	case string, []any, map[string]any:
		return Classify(generic)
	}
	return Content{Kind: KindOpaque, Value: generic}
}

// Normalizer converts tool results into strings. The zero value is usable.
type Normalizer struct {
	// Hook, when set, is applied to every value serialized as JSON. It is
	// never applied when a textual field was found.
	Hook Hook
}

// Normalize is total: it never panics and always yields a string.
func (n Normalizer) Normalize(v any) (out string) {
	var pc panics.Catcher
	pc.Try(func() { out = n.normalize(Classify(v)) })
	if r := pc.Recovered(); r != nil {
		return fmt.Sprint(v)
	}
	return out
}

func (n Normalizer) normalize(c Content) string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindItemList:
		return n.items(c.Items)
	case KindObject:
		return n.object(c.Object)
	default:
		return n.opaque(c.Value)
	}
}

func (n Normalizer) items(items []any) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if p := n.item(item); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n")
}

func (n Normalizer) item(item any) string {
	c := Classify(item)
	switch c.Kind {
	case KindText:
		return c.Text
	case KindObject:
		if t, found := textField(c.Object); found {
			return t
		}
		return n.json(c.Object)
	case KindItemList:
		return n.json(c.Items)
	default:
		if c.Value == nil {
			return ""
		}
		return n.opaque(c.Value)
	}
}

func (n Normalizer) object(obj map[string]any) string {
	if t, found := textField(obj); found && t != "" {
		return t
	}
	return n.json(obj)
}

func (n Normalizer) opaque(v any) string {
	return n.json(v)
}

func (n Normalizer) json(v any) string {
	if n.Hook != nil {
		v = n.Hook(v)
	}
	return json.SafeText(v)
}

// textField returns the first non-empty string among the text keys. found is
// also true when a text key holds an empty string, which marks the entry as
// textual but blank.
func textField(obj map[string]any) (string, bool) {
	found := false
	for _, k := range textKeys {
		s, ok := obj[k].(string)
		if !ok {
			continue
		}
		if s != "" {
			return s, true
		}
		found = true
	}
	return "", found
}

// ResultContent extracts the part of a tools/call result that should be
// normalized: its content list, or the structured content when the list is
// empty. Payloads that are not result objects are returned unchanged.
func ResultContent(result any) (content any, isError bool) {
	m, ok := result.(map[string]any)
	if !ok {
		return result, false
	}
	isError, _ = m["isError"].(bool)
	raw, ok := m["content"]
	if !ok {
		return result, isError
	}
	if list, ok := raw.([]any); ok && len(list) == 0 {
		if sc, ok := m["structuredContent"]; ok && sc != nil {
			return sc, isError
		}
	}
	return raw, isError
}
