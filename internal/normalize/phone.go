package normalize

import "strings"

// NormalizePhone normalizes a phone number using the configured default country prefix.
func (n *Normalizer) NormalizePhone(raw string) (string, bool) {
	return NormalizePhone(raw, n.opts.CountryPrefix)
}

// NormalizePhone keeps digits and a leading plus sign, then applies the length rules.
func NormalizePhone(raw, countryPrefix string) (string, bool) {
	value := strings.TrimSpace(raw)
	plus := strings.HasPrefix(value, "+")

	var digits strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if d == "" {
		return "", false
	}

	switch {
	case plus:
		return "+" + d, true
	case len(d) == 10:
		return countryPrefix + d, true
	case len(d) == 11 && d[0] == '1':
		return "+" + d, true
	case len(d) >= 7 && len(d) <= 15:
		return countryPrefix + d, true
	default:
		return "", false
	}
}
