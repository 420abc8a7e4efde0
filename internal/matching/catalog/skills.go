package catalog

import (
	"encoding/json"
	"strings"
)

// ParseRequiredSkills reads the polymorphic required-skills column: a JSON array is decoded,
// other JSON values yield an empty list, and anything that is not JSON is split on commas.
func ParseRequiredSkills(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
		list, ok := decoded.([]interface{})
		if !ok {
			return []string{}
		}
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	}

	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
