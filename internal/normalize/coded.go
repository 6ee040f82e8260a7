package normalize

import "strings"

// Administrative gender codes.
const (
	GenderMale    = "male"
	GenderFemale  = "female"
	GenderOther   = "other"
	GenderUnknown = "unknown"
)

// Observation status codes.
const (
	StatusRegistered     = "registered"
	StatusPreliminary    = "preliminary"
	StatusFinal          = "final"
	StatusAmended        = "amended"
	StatusCorrected      = "corrected"
	StatusCancelled      = "cancelled"
	StatusEnteredInError = "entered-in-error"
	StatusUnknown        = "unknown"
)

// Built-in tables, keyed by lowercase vendor token.
var (
	defaultGenderTable = map[string]string{
		"m": GenderMale, "male": GenderMale, "man": GenderMale,
		"f": GenderFemale, "female": GenderFemale, "woman": GenderFemale,
		"o": GenderOther, "other": GenderOther, "x": GenderOther, "nonbinary": GenderOther,
		"u": GenderUnknown, "unk": GenderUnknown, "unknown": GenderUnknown,
	}

	defaultStatusTable = map[string]string{
		"r": StatusRegistered, "registered": StatusRegistered,
		"p": StatusPreliminary, "prelim": StatusPreliminary, "preliminary": StatusPreliminary,
		"f": StatusFinal, "final": StatusFinal, "complete": StatusFinal, "completed": StatusFinal,
		"a": StatusAmended, "amended": StatusAmended,
		"c": StatusCorrected, "corrected": StatusCorrected,
		"x": StatusCancelled, "cancelled": StatusCancelled, "canceled": StatusCancelled,
		"w": StatusEnteredInError, "entered-in-error": StatusEnteredInError, "error": StatusEnteredInError,
		"unknown": StatusUnknown,
	}
)

// MapGender maps a vendor gender token to an administrative gender code. It always succeeds.
func (n *Normalizer) MapGender(raw string) (string, bool) {
	return MapCode(raw, n.opts.GenderMap, defaultGenderTable, GenderUnknown)
}

// MapObservationStatus maps a vendor status token to an observation status code. It always succeeds.
func (n *Normalizer) MapObservationStatus(raw string) (string, bool) {
	return MapCode(raw, n.opts.StatusMap, defaultStatusTable, StatusUnknown)
}

// MapCode resolves raw through the caller table (exact match) and then the default table
// (case-insensitive). Empty and unmatched input resolve to unknown. The boolean is always true.
func MapCode(raw string, caller, defaults map[string]string, unknown string) (string, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return unknown, true
	}
	if mapped, ok := caller[value]; ok {
		return mapped, true
	}
	if mapped, ok := defaults[strings.ToLower(value)]; ok {
		return mapped, true
	}
	return unknown, true
}
