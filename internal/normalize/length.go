package normalize

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"
)

// ValidateLength reports whether value fits the configured maximum for field.
// Fields without a configured limit always pass.
func (n *Normalizer) ValidateLength(field, value string) bool {
	limit, ok := n.opts.MaxLengths[strings.ToLower(field)]
	if !ok {
		return true
	}
	return utf8.RuneCountInString(value) <= limit
}

// checkLengths walks v and records a failed Change for every string leaf whose key has a
// configured limit it exceeds. Keys are visited in sorted order.
func (n *Normalizer) checkLengths(path string, v any) []Change {
	if len(n.opts.MaxLengths) == 0 {
		return nil
	}
	var changes []Change
	var walk func(path, field string, v any)
	walk = func(path, field string, v any) {
		switch value := v.(type) {
		case map[string]any:
			for _, key := range slices.Sorted(maps.Keys(value)) {
				walk(path+"."+key, key, value[key])
			}
		case []any:
			for i, item := range value {
				walk(fmt.Sprintf("%s[%d]", path, i), field, item)
			}
		case string:
			if field != "" && !n.ValidateLength(field, value) {
				changes = append(changes, Change{
					Path:   path,
					Field:  field,
					From:   value,
					Reason: fmt.Sprintf("exceeds maximum length %d", n.opts.MaxLengths[strings.ToLower(field)]),
				})
			}
		}
	}
	walk(path, "", v)
	return changes
}
