package schema

import (
	"fmt"
	"strings"
)

// Severity is the ordered severity of a validation issue.
// Information < Warning < Error < Fatal.
type Severity int

// All severities, in ascending order.
const (
	SeverityInformation Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

var severityNames = map[Severity]string{
	SeverityInformation: "information",
	SeverityWarning:     "warning",
	SeverityError:       "error",
	SeverityFatal:       "fatal",
}

// String returns the FHIR issue-severity code.
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// IsBlocking reports whether the severity makes a resource invalid.
func (s Severity) IsBlocking() bool {
	return s >= SeverityError
}

// ParseSeverity converts a FHIR issue-severity code (case-insensitive) to a Severity.
func ParseSeverity(code string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "information", "info":
		return SeverityInformation, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	case "fatal":
		return SeverityFatal, nil
	default:
		return SeverityInformation, fmt.Errorf("unknown severity %q", code)
	}
}

// MarshalText encodes the severity as its FHIR code.
func (s Severity) MarshalText() ([]byte, error) {
	if _, ok := severityNames[s]; !ok {
		return nil, fmt.Errorf("cannot marshal %s", s)
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a FHIR code into the severity.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
