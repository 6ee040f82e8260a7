package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	numericSentinels = []string{"NULL", "N/A", "UNKNOWN"}
	numericStripper  = strings.NewReplacer(",", "", "$", "", "€", "", "£", "", "¥", "", "%", "", " ", "")
)

// ParseNumeric parses an observation value. Sentinel tokens are explicit non-values.
func ParseNumeric(raw string) (decimal.Decimal, bool) {
	value := strings.TrimSpace(raw)
	for _, sentinel := range numericSentinels {
		if strings.EqualFold(value, sentinel) {
			return decimal.Zero, false
		}
	}
	value = numericStripper.Replace(value)
	if value == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
