package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteTimestamps_ValuePair(t *testing.T) {
	out := RewriteTimestamps(map[string]any{"value": []any{1700000000.0, "5"}}).(map[string]any)
	assert.Equal(t, []any{"2023-11-15 06:13:20", "5"}, out["value"])
}

func TestRewriteTimestamps_NonPositiveUnchanged(t *testing.T) {
	out := RewriteTimestamps(map[string]any{"value": []any{-1.0, "5"}}).(map[string]any)
	assert.Equal(t, []any{-1.0, "5"}, out["value"])

	out = RewriteTimestamps(map[string]any{"value": []any{"soon", "5"}}).(map[string]any)
	assert.Equal(t, []any{"soon", "5"}, out["value"])
}

func TestRewriteTimestamps_Nested(t *testing.T) {
	in := map[string]any{
		"status": "success",
		"data": map[string]any{
			"result": []any{
				map[string]any{
					"metric": map[string]any{"job": "api"},
					"values": []any{
						[]any{"1700000000.5", "1"},
						[]any{0.0, "2"},
						"not a pair",
					},
				},
			},
		},
	}
	out := RewriteTimestamps(in).(map[string]any)
	series := out["data"].(map[string]any)["result"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{
		[]any{"2023-11-15 06:13:20", "1"},
		[]any{0.0, "2"},
		"not a pair",
	}, series["values"])
	assert.Equal(t, map[string]any{"job": "api"}, series["metric"])

	// input untouched
	orig := in["data"].(map[string]any)["result"].([]any)[0].(map[string]any)["values"].([]any)
	assert.Equal(t, "1700000000.5", orig[0].([]any)[0])
}

func TestNormalizeWithTimestampHook(t *testing.T) {
	n := Normalizer{Hook: RewriteTimestamps}
	got := n.Normalize(map[string]any{"value": []any{1700000000.0, "5"}})
	assert.Equal(t, `{"value":["2023-11-15 06:13:20","5"]}`, got)

	assert.Equal(t, "text wins", n.Normalize(map[string]any{"text": "text wins", "value": []any{1.0, "x"}}))
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "1970-01-01 08:00:01", FormatTimestamp(1))
	assert.Equal(t, nil, FormatTimestamp(nil))
	assert.Equal(t, 1e300, FormatTimestamp(1e300))
}
