package normalize

import (
	"errors"
	"fmt"

	"github.com/huangsam/fhirgate/schema"
)

// ErrUnknownKind is returned by Value for a kind it does not handle.
var ErrUnknownKind = errors.New("unknown normalization kind")

// Value applies the converter named by kind and renders the result as text.
// country is only consulted by the postal kind.
func (n *Normalizer) Value(kind schema.NormalizeKind, raw, country string) (string, bool, error) {
	switch kind {
	case schema.DateKind:
		t, ok := n.ParseDate(raw)
		if !ok {
			return "", false, nil
		}
		return t.Format(FHIRDateFormat), true, nil
	case schema.GenderKind:
		v, ok := n.MapGender(raw)
		return v, ok, nil
	case schema.StatusKind:
		v, ok := n.MapObservationStatus(raw)
		return v, ok, nil
	case schema.PhoneKind:
		v, ok := n.NormalizePhone(raw)
		return v, ok, nil
	case schema.EmailKind:
		v, ok := NormalizeEmail(raw)
		return v, ok, nil
	case schema.PostalKind:
		v, ok := NormalizePostalCode(raw, country)
		return v, ok, nil
	case schema.NumericKind:
		d, ok := ParseNumeric(raw)
		if !ok {
			return "", false, nil
		}
		return d.String(), true, nil
	default:
		return "", false, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
