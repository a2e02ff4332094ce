package validate

import (
	"strings"
	"unicode/utf8"
)

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

func MaxRunes(value string, limit int) bool {
	return utf8.RuneCountInString(value) <= limit
}

// Tags trims every tag, drops blanks and case-insensitive duplicates, and keeps
// the first spelling seen. It reports false when the cleaned list breaks a limit.
func Tags(raw []string, maxTags, maxTagLen int) ([]string, bool) {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !MaxRunes(tag, maxTagLen) {
			return nil, false
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > maxTags {
		return nil, false
	}
	return out, true
}
