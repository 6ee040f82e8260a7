package normalize

import (
	"encoding/json"
	"fmt"

	"github.com/huangsam/fhirgate/schema"
)

// Change records one field touched by NormalizeResource.
// OK is false when the value could not be normalized or breaks a configured length limit;
// the value is then left as-is.
type Change struct {
	Path   string `json:"path"`
	Field  string `json:"field"`
	From   any    `json:"from"`
	To     any    `json:"to,omitempty"`
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// NormalizeResource applies the converters to well-known vendor fields of a parsed resource.
// The input document is not modified; a new document with a fresh tree and raw bytes is returned.
func (n *Normalizer) NormalizeResource(doc schema.Document) (schema.Document, []Change, error) {
	data, _ := deepCopy(doc.Data).(map[string]any)
	if data == nil {
		return doc, nil, nil
	}

	var changes []Change
	record := func(path, field string, from, to any, ok bool) {
		changes = append(changes, Change{Path: path, Field: field, From: from, To: to, OK: ok})
	}

	switch doc.ResourceType {
	case "Patient":
		if raw, ok := data["gender"].(string); ok {
			code, _ := n.MapGender(raw)
			if code != raw {
				data["gender"] = code
				record("Patient.gender", "gender", raw, code, true)
			}
		}
		if raw, ok := data["birthDate"].(string); ok {
			if t, ok := n.ParseDate(raw); ok {
				formatted := t.Format(FHIRDateFormat)
				if formatted != raw {
					data["birthDate"] = formatted
					record("Patient.birthDate", "birthDate", raw, formatted, true)
				}
			} else {
				record("Patient.birthDate", "birthDate", raw, nil, false)
			}
		}
	case "Observation":
		if raw, ok := data["status"].(string); ok {
			code, _ := n.MapObservationStatus(raw)
			if code != raw {
				data["status"] = code
				record("Observation.status", "status", raw, code, true)
			}
		}
		if quantity, ok := data["valueQuantity"].(map[string]any); ok {
			if raw, ok := quantity["value"].(string); ok {
				if d, ok := ParseNumeric(raw); ok {
					quantity["value"] = json.Number(d.String())
					record("Observation.valueQuantity.value", "value", raw, d.String(), true)
				} else {
					record("Observation.valueQuantity.value", "value", raw, nil, false)
				}
			}
		}
	}

	changes = append(changes, n.normalizeTelecom(doc.ResourceType, data)...)
	changes = append(changes, n.normalizeAddresses(doc.ResourceType, data)...)
	changes = append(changes, n.checkLengths(doc.ResourceType, data)...)

	raw, err := json.Marshal(data)
	if err != nil {
		return doc, nil, fmt.Errorf("failed to encode normalized resource: %w", err)
	}

	out := doc
	out.Data = data
	out.Raw = raw
	return out, changes, nil
}

func (n *Normalizer) normalizeTelecom(resourceType string, data map[string]any) []Change {
	entries, ok := data["telecom"].([]any)
	if !ok {
		return nil
	}
	var changes []Change
	for i, entry := range entries {
		point, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		raw, ok := point["value"].(string)
		if !ok {
			continue
		}
		path := fmt.Sprintf("%s.telecom[%d].value", resourceType, i)
		var normalized string
		switch point["system"] {
		case "phone", "sms", "fax", "pager":
			normalized, ok = n.NormalizePhone(raw)
		case "email":
			normalized, ok = NormalizeEmail(raw)
		default:
			continue
		}
		if !ok {
			changes = append(changes, Change{Path: path, Field: "telecom", From: raw})
			continue
		}
		if normalized != raw {
			point["value"] = normalized
			changes = append(changes, Change{Path: path, Field: "telecom", From: raw, To: normalized, OK: true})
		}
	}
	return changes
}

func (n *Normalizer) normalizeAddresses(resourceType string, data map[string]any) []Change {
	entries, ok := data["address"].([]any)
	if !ok {
		return nil
	}
	var changes []Change
	for i, entry := range entries {
		addr, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		raw, ok := addr["postalCode"].(string)
		if !ok {
			continue
		}
		country, _ := addr["country"].(string)
		path := fmt.Sprintf("%s.address[%d].postalCode", resourceType, i)
		normalized, ok := NormalizePostalCode(raw, country)
		if !ok {
			changes = append(changes, Change{Path: path, Field: "address", From: raw})
			continue
		}
		if normalized != raw {
			addr["postalCode"] = normalized
			changes = append(changes, Change{Path: path, Field: "address", From: raw, To: normalized, OK: true})
		}
	}
	return changes
}

func deepCopy(v any) any {
	switch value := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[k] = deepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return value
	}
}
