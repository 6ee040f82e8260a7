package normalize

import (
	"net/mail"
	"strings"
)

// NormalizeEmail trims and lowercases an address and accepts it only when strict parsing
// returns the very same bare address.
func NormalizeEmail(raw string) (string, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Name != "" || addr.Address != value {
		return "", false
	}
	return value, true
}
