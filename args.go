package toolclient

// Candidates builds a tool-name candidate list with an optional preferred
// name in front. Duplicates and empty names are removed.
func Candidates(preferred string, names ...string) []string {
	out := make([]string, 0, len(names)+1)
	seen := make(map[string]bool, len(names)+1)
	for _, n := range append([]string{preferred}, names...) {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// OmitZero returns nil for the zero value of T, so the argument is dropped
// before transmission.
func OmitZero[T comparable](v T) any {
	var zero T
	if v == zero {
		return nil
	}
	return v
}
