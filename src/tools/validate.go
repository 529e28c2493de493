package tools

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Validate checks args against the tool's declared input schema. Tools
// discovered without a schema always validate.
func (t Tool) Validate(args map[string]any) error {
	if !t.HasSchema {
		return nil
	}
	doc := t.Inputs.Raw
	if doc == nil {
		doc = map[string]any{"type": "object", "properties": t.Inputs.Properties}
	}
	if args == nil {
		args = map[string]any{}
	}
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(doc), gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("schema validation error for %s: %w", t.Name, err)
	}
	if result.Valid() {
		return nil
	}
	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("arguments for %s failed validation: %s", t.Name, strings.Join(details, "; "))
}
