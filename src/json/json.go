package json

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// text is used for payloads handed to a language model or written to logs:
// map keys are sorted and HTML characters are left unescaped.
var text = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

var (
	Marshal    = json.Marshal
	Unmarshal  = json.Unmarshal
	NewDecoder = json.NewDecoder
	NewEncoder = json.NewEncoder
)

type RawMessage = jsoniter.RawMessage

type Decoder = jsoniter.Decoder

type Encoder = jsoniter.Encoder

// MarshalText encodes v as compact JSON without HTML escaping.
func MarshalText(v any) (string, error) {
	return text.MarshalToString(v)
}

// SafeText is MarshalText that never fails: values that cannot be encoded
// fall back to their fmt representation.
func SafeText(v any) string {
	s, err := MarshalText(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// Roundtrip converts v into its generic JSON form (maps, slices, float64,
// string, bool, nil).
func Roundtrip(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
