package service

import "strings"

// splitCommaSeparated splits a comma-separated list into trimmed,
// lower-cased, de-duplicated entries in their original order.
func splitCommaSeparated(csv string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(csv, ",") {
		v := strings.ToLower(strings.TrimSpace(part))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
