package search

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NormalizeField flattens a stored field into a lowercase search string. A value printed as
// an array ("['react', 'vue']") is joined with spaces; anything else, including an array
// that fails to parse, is lowercased as is.
func NormalizeField(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		var items []any
		if err := json.Unmarshal([]byte(strings.ReplaceAll(trimmed, "'", `"`)), &items); err == nil {
			parts := make([]string, 0, len(items))
			for _, item := range items {
				if item != nil {
					parts = append(parts, fmt.Sprint(item))
				}
			}
			return strings.ToLower(strings.Join(parts, " "))
		}
	}
	return strings.ToLower(raw)
}

// NormalizeList joins list values with spaces and lowercases them
func NormalizeList(values []string) string {
	return strings.ToLower(strings.Join(values, " "))
}
