package outwriter

import (
	"os"

	"golang.org/x/term"
)

// terminalWidth returns the override when set, else the detected stdout width.
func terminalWidth(override int) int {
	if override > 0 {
		return override
	}
	detected, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detected <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return detected
}

// maxResourceNameWidth calculates the maximum width for resource names in table output.
func maxResourceNameWidth(override int) int {
	// Reserve space for # + Type + Status + Errors + Warnings + Duration with borders/padding
	available := terminalWidth(override) - 70
	if available < 20 {
		return 20
	}
	if available > 120 {
		return 120
	}
	return available
}
