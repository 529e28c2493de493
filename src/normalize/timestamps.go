package normalize

import (
	"math"
	"time"

	"github.com/spf13/cast"
)

// TimestampLayout is the format rewritten sample timestamps use.
const TimestampLayout = "2006-01-02 15:04:05"

// maxUnixSeconds is 9999-12-31T23:59:59Z; larger values are left alone.
const maxUnixSeconds = 253402300799

// UTC8 is the fixed offset Prometheus sample timestamps are rendered in.
var UTC8 = time.FixedZone("UTC+8", 8*60*60)

// RewriteTimestamps walks a generic JSON value and replaces the first element
// of every "value" pair and of every pair in a "values" list with a formatted
// UTC+8 timestamp. Non-numeric or non-positive timestamps are kept as is.
// The input is not modified.
func RewriteTimestamps(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			switch {
			case k == "value" && isPair(val):
				out[k] = rewritePair(val.([]any))
			case k == "values" && isList(val):
				list := val.([]any)
				rewritten := make([]any, len(list))
				for i, item := range list {
					if isPair(item) {
						rewritten[i] = rewritePair(item.([]any))
					} else {
						rewritten[i] = item
					}
				}
				out[k] = rewritten
			default:
				out[k] = RewriteTimestamps(val)
			}
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = RewriteTimestamps(item)
		}
		return out
	default:
		return v
	}
}

func isList(v any) bool {
	_, ok := v.([]any)
	return ok
}

func isPair(v any) bool {
	l, ok := v.([]any)
	return ok && len(l) >= 1
}

func rewritePair(pair []any) []any {
	out := make([]any, len(pair))
	copy(out, pair)
	out[0] = FormatTimestamp(pair[0])
	return out
}

// FormatTimestamp renders ts, interpreted as Unix seconds, in UTC+8. Values
// that are not positive numbers come back unchanged.
func FormatTimestamp(ts any) any {
	f, err := cast.ToFloat64E(ts)
	if err != nil || math.IsNaN(f) || f <= 0 || f > maxUnixSeconds {
		return ts
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).In(UTC8).Format(TimestampLayout)
}
