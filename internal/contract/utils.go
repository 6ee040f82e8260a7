package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/huangsam/fhirgate/schema"
)

// Status label constants.
const (
	PassValue = "PASS"
	FailValue = "FAIL"
)

// Color variables for console output.
var (
	FatalColor       = color.New(color.FgRed, color.Bold) // FatalColor marks checker-level breakage.
	ErrorColor       = color.New(color.FgRed)
	WarningColor     = color.New(color.FgYellow)
	InformationColor = color.New(color.FgCyan)
	PassColor        = color.New(color.FgGreen, color.Bold)
	FailColor        = color.New(color.FgRed, color.Bold)
)

// GetSeverityLabel returns the severity code, colored for console output when requested.
func GetSeverityLabel(sev schema.Severity, useColors bool) string {
	text := strings.ToUpper(sev.String())
	if !useColors {
		return text
	}
	switch sev {
	case schema.SeverityFatal:
		return FatalColor.Sprint(text)
	case schema.SeverityError:
		return ErrorColor.Sprint(text)
	case schema.SeverityWarning:
		return WarningColor.Sprint(text)
	default:
		return InformationColor.Sprint(text)
	}
}

// GetStatusLabel returns PASS or FAIL, colored for console output when requested.
func GetStatusLabel(valid, useColors bool) string {
	if valid {
		if useColors {
			return PassColor.Sprint(PassValue)
		}
		return PassValue
	}
	if useColors {
		return FailColor.Sprint(FailValue)
	}
	return FailValue
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// LogInfo logs an informational message to stderr.
func LogInfo(msg string) {
	_, _ = fmt.Fprintf(os.Stderr, "Info %s\n", msg)
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".fhirgate_history.db"
	}
	return filepath.Join(homeDir, ".fhirgate_history.db")
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 so the "..." prefix leaves room for at least one character.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
