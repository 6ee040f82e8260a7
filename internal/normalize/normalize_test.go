package normalize

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/fhirgate/schema"
)

func TestParseDate(t *testing.T) {
	n := New(DefaultOptions())
	tests := []struct {
		name     string
		input    string
		expected time.Time
		ok       bool
	}{
		{"iso date", "2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"us slashes", "03/05/2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"compact", "20240305", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"us dashes", "03-05-2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"iso slashes", "2024/03/05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"surrounding whitespace", "  2024-03-05 ", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"empty", "", time.Time{}, false},
		{"whitespace only", "   ", time.Time{}, false},
		{"garbage", "not a date", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.ParseDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.expected.Equal(got), "got %s", got)
			}
		})
	}
}

func TestParseDateFallback(t *testing.T) {
	got, ok := ParseDate("2024-03-05 10:30:00", []string{"2006-01-02"})
	require.True(t, ok)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, 10, got.Hour())
}

func TestParseDateFormatOrder(t *testing.T) {
	// 01/02 is ambiguous; the first configured layout wins.
	dayFirst, ok := ParseDate("01/02/2024", []string{"02/01/2006", "01/02/2006"})
	require.True(t, ok)
	assert.Equal(t, time.February, dayFirst.Month())

	monthFirst, ok := ParseDate("01/02/2024", []string{"01/02/2006", "02/01/2006"})
	require.True(t, ok)
	assert.Equal(t, time.January, monthFirst.Month())
}

func TestMapGender(t *testing.T) {
	n := New(Options{GenderMap: map[string]string{"1": GenderMale, "2": GenderFemale, "Fem": GenderFemale}})
	tests := []struct {
		input    string
		expected string
	}{
		{"M", GenderMale},
		{"female", GenderFemale},
		{"F", GenderFemale},
		{" o ", GenderOther},
		{"1", GenderMale},
		{"2", GenderFemale},
		{"Fem", GenderFemale},
		{"fem", GenderUnknown},
		{"", GenderUnknown},
		{"zzz", GenderUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := n.MapGender(tt.input)
			assert.True(t, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestMapObservationStatus(t *testing.T) {
	n := New(Options{StatusMap: map[string]string{"DONE": StatusFinal}})
	tests := []struct {
		input    string
		expected string
	}{
		{"F", StatusFinal},
		{"Final", StatusFinal},
		{"prelim", StatusPreliminary},
		{"canceled", StatusCancelled},
		{"entered-in-error", StatusEnteredInError},
		{"DONE", StatusFinal},
		{"", StatusUnknown},
		{"whatever", StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := n.MapObservationStatus(tt.input)
			assert.True(t, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{"ten digits", "(555) 123-4567", "+15551234567", true},
		{"eleven digits with leading one", "1-555-123-4567", "+15551234567", true},
		{"already international", "+44 20 7946 0958", "+442079460958", true},
		{"seven digits", "123-4567", "+11234567", true},
		{"too short", "12345", "", false},
		{"too long", "1234567890123456", "", false},
		{"no digits", "call me", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizePhone(tt.input, DefaultCountryPrefix)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizePhoneCustomPrefix(t *testing.T) {
	n := New(Options{CountryPrefix: "+44"})
	got, ok := n.NormalizePhone("2079460958")
	require.True(t, ok)
	assert.Equal(t, "+442079460958", got)
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{"plain", "john@example.com", "john@example.com", true},
		{"mixed case and spaces", "  John.Doe@Example.COM ", "john.doe@example.com", true},
		{"display name", "John <john@example.com>", "", false},
		{"missing at", "john.example.com", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeEmail(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizePostalCode(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		country  string
		expected string
		ok       bool
	}{
		{"us five", "12345", "US", "12345", true},
		{"us nine", "123456789", "us", "12345-6789", true},
		{"us nine with dash", "12345-6789", "USA", "12345-6789", true},
		{"us bad length", "1234", "US", "", false},
		{"us letters", "12A45", "US", "", false},
		{"ca compact", "k1a0b1", "CA", "K1A 0B1", true},
		{"ca spaced", "K1A 0B1", "can", "K1A 0B1", true},
		{"ca invalid", "123456", "CA", "", false},
		{"other country", " sw1a 1aa ", "GB", "SW1A 1AA", true},
		{"no country", "abc", "", "ABC", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizePostalCode(tt.code, tt.country)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{"plain", "42", "42", true},
		{"decimal", "98.6", "98.6", true},
		{"thousands and currency", "$1,234.56", "1234.56", true},
		{"euro", "€12", "12", true},
		{"percent", "45%", "45", true},
		{"negative", "-3.5", "-3.5", true},
		{"null sentinel", "NULL", "", false},
		{"n/a sentinel", "n/a", "", false},
		{"unknown sentinel", "Unknown", "", false},
		{"symbols only", "$", "", false},
		{"not a number", "abc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumeric(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, got.String())
			}
		})
	}
}

func TestValidateLength(t *testing.T) {
	n := New(Options{MaxLengths: map[string]int{"name": 5, "Code": 3}})

	assert.True(t, n.ValidateLength("name", "Alice"), "limit is inclusive")
	assert.False(t, n.ValidateLength("name", "Alicia"))
	assert.True(t, n.ValidateLength("name", "Zoë"), "runes are counted, not bytes")
	assert.True(t, n.ValidateLength("code", "abc"), "field lookup ignores case")
	assert.True(t, n.ValidateLength("comment", strings.Repeat("x", 1000)), "no limit configured")
}

func TestRedact(t *testing.T) {
	long := strings.Repeat("a", RedactThreshold+1)
	tests := []struct {
		name     string
		field    string
		value    any
		expected string
	}{
		{"ssn", "SSN", "123-45-6789", "[REDACTED string len=11]"},
		{"snake case name", "first_name", "Alice", "[REDACTED string len=5]"},
		{"dashed birth date", "birth-date", "1990-01-01", "[REDACTED string len=10]"},
		{"mrn number", "MRN", 12345, "[REDACTED int len=5]"},
		{"nil sensitive", "email", nil, "[REDACTED nil len=0]"},
		{"plain field", "status", "final", "final"},
		{"plain number", "count", 42, "42"},
		{"at threshold", "note", strings.Repeat("a", RedactThreshold), strings.Repeat("a", RedactThreshold)},
		{"long value", "note", long, "[REDACTED string len=51]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Redact(tt.field, tt.value))
		})
	}
}

func TestConvertersAreDeterministic(t *testing.T) {
	n := New(Options{
		GenderMap:  map[string]string{"X": "other"},
		MaxLengths: map[string]int{"family": 3},
	})
	tests := []struct {
		name string
		run  func() any
	}{
		{"parse date", func() any { d, ok := n.ParseDate("03/05/2024"); return []any{d, ok} }},
		{"parse date fallback", func() any { d, ok := n.ParseDate("March 5, 2024"); return []any{d, ok} }},
		{"map gender", func() any { c, ok := n.MapGender("X"); return []any{c, ok} }},
		{"map unknown gender", func() any { c, ok := n.MapGender("??"); return []any{c, ok} }},
		{"map status", func() any { c, ok := n.MapObservationStatus("prelim"); return []any{c, ok} }},
		{"phone", func() any { p, ok := n.NormalizePhone("(555) 123-4567"); return []any{p, ok} }},
		{"email", func() any { e, ok := NormalizeEmail(" Jane@Example.COM "); return []any{e, ok} }},
		{"postal", func() any { p, ok := NormalizePostalCode("k1a0b1", "CA"); return []any{p, ok} }},
		{"numeric", func() any { d, ok := ParseNumeric("$1,234.50"); return []any{d.String(), ok} }},
		{"redact", func() any { return Redact("ssn", "123-45-6789") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.run(), tt.run())
		})
	}
}

func TestNormalizeResourceIsDeterministic(t *testing.T) {
	n := New(Options{MaxLengths: map[string]int{"family": 3, "value": 8}})
	doc := schema.Document{
		ResourceType: "Patient",
		Data: map[string]any{
			"resourceType": "Patient",
			"gender":       "F",
			"birthDate":    "03/05/1990",
			"name":         []any{map[string]any{"family": "Montgomery", "given": []any{"Al"}}},
			"telecom": []any{
				map[string]any{"system": "phone", "value": "(555) 123-4567"},
				map[string]any{"system": "email", "value": "not-an-email"},
			},
			"address": []any{map[string]any{"postalCode": "123456789", "country": "US"}},
		},
	}

	first, firstChanges, err := n.NormalizeResource(doc)
	require.NoError(t, err)
	second, secondChanges, err := n.NormalizeResource(doc)
	require.NoError(t, err)

	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, string(first.Raw), string(second.Raw))
	assert.Equal(t, firstChanges, secondChanges)
	assert.Equal(t, "F", doc.Data["gender"], "input is not modified")
}
