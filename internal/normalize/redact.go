package normalize

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// RedactThreshold is the length above which any value is redacted.
const RedactThreshold = 50

var sensitiveFields = map[string]struct{}{
	"name": {}, "firstname": {}, "lastname": {}, "middlename": {}, "fullname": {},
	"givenname": {}, "familyname": {}, "patientname": {},
	"contact": {}, "phone": {}, "phonenumber": {}, "telecom": {}, "email": {}, "address": {},
	"identifier": {}, "mrn": {}, "medicalrecordnumber": {}, "ssn": {}, "socialsecuritynumber": {},
	"dob": {}, "dateofbirth": {}, "birthdate": {},
}

var fieldKeyStripper = strings.NewReplacer("_", "", "-", "", " ", "", ".", "")

// IsSensitiveField reports whether field is always redacted.
func IsSensitiveField(field string) bool {
	_, ok := sensitiveFields[fieldKeyStripper.Replace(strings.ToLower(field))]
	return ok
}

// Redact returns a log-safe representation of value. Sensitive fields and long values are
// replaced by a type and length tag.
func Redact(field string, value any) string {
	s := ""
	if value != nil {
		s = fmt.Sprint(value)
	}
	length := utf8.RuneCountInString(s)
	if IsSensitiveField(field) || length > RedactThreshold {
		return fmt.Sprintf("[REDACTED %s len=%d]", typeTag(value), length)
	}
	return s
}

func typeTag(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}
