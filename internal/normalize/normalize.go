// Package normalize converts loosely typed vendor values into validator-ready values.
//
// Every converter is pure and reports failure as a boolean, never as an error, so that
// callers decide per field whether to skip, default or escalate.
package normalize

import "strings"

// DefaultCountryPrefix is prepended to national phone numbers.
const DefaultCountryPrefix = "+1"

// DefaultDateFormats are tried in order before the general-purpose fallback.
var DefaultDateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"20060102",
	"2006-01-02T15:04:05Z07:00",
	"01-02-2006",
	"2006/01/02",
}

// Options configures a Normalizer.
type Options struct {
	CountryPrefix string
	DateFormats   []string
	GenderMap     map[string]string // exact, case-sensitive keys
	StatusMap     map[string]string // exact, case-sensitive keys
	MaxLengths    map[string]int    // field name -> inclusive max length in runes
}

// DefaultOptions returns the options used when no configuration is supplied.
func DefaultOptions() Options {
	return Options{
		CountryPrefix: DefaultCountryPrefix,
		DateFormats:   append([]string(nil), DefaultDateFormats...),
	}
}

// Normalizer applies the conversion rules with one set of options.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	opts Options
}

// New creates a Normalizer. Empty options fall back to the defaults.
func New(opts Options) *Normalizer {
	if opts.CountryPrefix == "" {
		opts.CountryPrefix = DefaultCountryPrefix
	}
	if len(opts.DateFormats) == 0 {
		opts.DateFormats = append([]string(nil), DefaultDateFormats...)
	}
	lengths := make(map[string]int, len(opts.MaxLengths))
	for field, limit := range opts.MaxLengths {
		lengths[strings.ToLower(field)] = limit
	}
	opts.MaxLengths = lengths
	return &Normalizer{opts: opts}
}

// Options returns a copy of the options in use.
func (n *Normalizer) Options() Options {
	return n.opts
}
