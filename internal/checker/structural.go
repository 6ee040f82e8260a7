package checker

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/huangsam/fhirgate/schema"
)

var (
	idPattern = regexp.MustCompile(`^[A-Za-z0-9\-.]{1,64}$`)

	// dateTimePattern accepts FHIR date, dateTime and instant values.
	dateTimePattern = regexp.MustCompile(`^([0-9]([0-9]([0-9][1-9]|[1-9]0)|[1-9]00)|[1-9]000)` +
		`(-(0[1-9]|1[0-2])(-(0[1-9]|[1-2][0-9]|3[0-1])` +
		`(T([01][0-9]|2[0-3]):[0-5][0-9]:([0-5][0-9]|60)(\.[0-9]+)?(Z|(\+|-)((0[0-9]|1[0-3]):[0-5][0-9]|14:00)))?)?)?$`)

	referencePattern = regexp.MustCompile(`^(#.+|urn:uuid:.+|urn:oid:.+|https?://\S+|` +
		`[A-Z][A-Za-z]+/[A-Za-z0-9\-.]{1,64}(/_history/[A-Za-z0-9\-.]{1,64})?)$`)
)

func issue(sev schema.Severity, code, location, format string, args ...any) schema.ValidationIssue {
	return schema.ValidationIssue{
		Severity:    sev,
		Code:        code,
		Description: fmt.Sprintf(format, args...),
		Location:    location,
	}
}

// checkResourceType reports a mismatch between the document and the profile's resource type.
func checkResourceType(doc schema.Document, p *Profile) []schema.ValidationIssue {
	if doc.ResourceType == p.ResourceType {
		return nil
	}
	return []schema.ValidationIssue{issue(schema.SeverityError, "structure", doc.ResourceType,
		"resource type %s does not match profile %s, which constrains %s", doc.ResourceType, p.URL, p.ResourceType)}
}

func checkID(doc schema.Document, p *Profile) []schema.ValidationIssue {
	raw, ok := doc.Data["id"]
	if !ok {
		return nil
	}
	location := p.ResourceType + ".id"
	id, isString := raw.(string)
	if !isString {
		return []schema.ValidationIssue{issue(schema.SeverityError, "structure", location, "id must be a string")}
	}
	if !idPattern.MatchString(id) {
		return []schema.ValidationIssue{issue(schema.SeverityError, "value", location,
			"id %q does not match %s", id, idPattern.String())}
	}
	return nil
}

func checkRequired(doc schema.Document, p *Profile) []schema.ValidationIssue {
	var issues []schema.ValidationIssue
	for _, element := range p.Required {
		if hasElement(doc.Data, element) {
			continue
		}
		issues = append(issues, issue(schema.SeverityError, "required", p.ResourceType+"."+element,
			"missing required element %s", element))
	}
	return issues
}

// checkCodes validates coded elements such as status against the profile's allowed codes.
func checkCodes(doc schema.Document, p *Profile) []schema.ValidationIssue {
	elements := make([]string, 0, len(p.Codes))
	for element := range p.Codes {
		elements = append(elements, element)
	}
	sort.Strings(elements)

	var issues []schema.ValidationIssue
	for _, element := range elements {
		raw, ok := doc.Data[element]
		if !ok {
			continue
		}
		location := p.ResourceType + "." + element
		code, isString := raw.(string)
		if !isString {
			issues = append(issues, issue(schema.SeverityError, "structure", location, "%s must be a code string", element))
			continue
		}
		if !slices.Contains(p.Codes[element], code) {
			issues = append(issues, issue(schema.SeverityError, "value", location,
				"%s %q is not one of %s", element, code, strings.Join(p.Codes[element], ", ")))
		}
	}
	return issues
}

func checkDates(doc schema.Document, p *Profile) []schema.ValidationIssue {
	var issues []schema.ValidationIssue
	for _, element := range p.DateElements {
		raw, ok := doc.Data[element]
		if !ok {
			continue
		}
		location := p.ResourceType + "." + element
		value, isString := raw.(string)
		if !isString || !dateTimePattern.MatchString(value) {
			issues = append(issues, issue(schema.SeverityError, "value", location,
				"%s %v is not a valid FHIR date", element, raw))
		}
	}
	return issues
}

// checkReferences walks the whole tree and validates every Reference.reference string.
func checkReferences(doc schema.Document, p *Profile) []schema.ValidationIssue {
	var issues []schema.ValidationIssue
	var walk func(v any, path string)
	walk = func(v any, path string) {
		switch node := v.(type) {
		case map[string]any:
			keys := make([]string, 0, len(node))
			for k := range node {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				child := node[k]
				childPath := path + "." + k
				if k == "reference" {
					if ref, ok := child.(string); ok && !referencePattern.MatchString(ref) {
						issues = append(issues, issue(schema.SeverityError, "value", childPath,
							"reference %q is not a valid literal reference", ref))
					}
					continue
				}
				walk(child, childPath)
			}
		case []any:
			for i, item := range node {
				walk(item, fmt.Sprintf("%s[%d]", path, i))
			}
		}
	}
	walk(doc.Data, p.ResourceType)
	return issues
}

// hasElement reports whether element is present and non-empty. Choice elements such as
// value[x] match any concrete property with the same prefix.
func hasElement(data map[string]any, element string) bool {
	if prefix, ok := strings.CutSuffix(element, "[x]"); ok {
		for k, v := range data {
			if len(k) > len(prefix) && strings.HasPrefix(k, prefix) && isUpper(k[len(prefix)]) && !isEmpty(v) {
				return true
			}
		}
		return false
	}
	v, ok := data[element]
	return ok && !isEmpty(v)
}

func isEmpty(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(value) == ""
	case []any:
		return len(value) == 0
	case map[string]any:
		return len(value) == 0
	default:
		return false
	}
}

func isUpper(b byte) bool {
	return b >= 'A' && b <= 'Z'
}
