package normalize

import (
	"regexp"
	"strings"
)

var caPostalPattern = regexp.MustCompile(`^[A-Z][0-9][A-Z][0-9][A-Z][0-9]$`)

// NormalizePostalCode applies country-specific postal rules. Countries without rules are
// passed through trimmed and uppercased.
func NormalizePostalCode(raw, country string) (string, bool) {
	value := strings.TrimSpace(raw)
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "US", "USA":
		return normalizeUSPostal(value)
	case "CA", "CAN":
		return normalizeCAPostal(value)
	default:
		return strings.ToUpper(value), true
	}
}

func normalizeUSPostal(value string) (string, bool) {
	compact := strings.NewReplacer(" ", "", "-", "").Replace(value)
	for _, r := range compact {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	switch len(compact) {
	case 5:
		return compact, true
	case 9:
		return compact[:5] + "-" + compact[5:], true
	default:
		return "", false
	}
}

func normalizeCAPostal(value string) (string, bool) {
	compact := strings.ToUpper(strings.ReplaceAll(value, " ", ""))
	if !caPostalPattern.MatchString(compact) {
		return "", false
	}
	return compact[:3] + " " + compact[3:], true
}
