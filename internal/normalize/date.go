package normalize

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// FHIRDateFormat is the layout used when writing a normalized date back into a resource.
const FHIRDateFormat = "2006-01-02"

// ParseDate tries the configured formats in order, then one general-purpose parse.
func (n *Normalizer) ParseDate(raw string) (time.Time, bool) {
	return ParseDate(raw, n.opts.DateFormats)
}

// ParseDate tries each exact format in order; the first match wins. If none match, a
// general-purpose parse is attempted as a last resort.
func ParseDate(raw string, formats []string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	t, err := cast.ToTimeE(value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
