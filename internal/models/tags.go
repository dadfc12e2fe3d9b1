package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseTags reads the stored tag string. Accepted forms are a comma list ("a, b") and a
// printed array ("['a', 'b']" or `["a","b"]`). A string that looks like an array but does
// not parse is kept whole as a single tag.
func ParseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		var items []any
		if err := json.Unmarshal([]byte(strings.ReplaceAll(raw, "'", `"`)), &items); err != nil {
			return []string{raw}
		}
		tags := make([]string, 0, len(items))
		for _, item := range items {
			if item == nil {
				continue
			}
			if tag := strings.TrimSpace(fmt.Sprint(item)); tag != "" {
				tags = append(tags, tag)
			}
		}
		return tags
	}

	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if tag := strings.TrimSpace(p); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// FormatTags encodes tags into the stored comma list
func FormatTags(tags []string) string {
	return strings.Join(tags, ",")
}

// TagList decodes from either a JSON array of strings or a single delimited string
type TagList []string

// UnmarshalJSON implements json.Unmarshaler
func (t *TagList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = nil
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, tag := range list {
			if tag = strings.TrimSpace(tag); tag != "" {
				out = append(out, tag)
			}
		}
		*t = out
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("tags must be a string or an array of strings")
	}
	*t = ParseTags(raw)
	return nil
}
