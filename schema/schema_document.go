package schema

// Document is a parsed FHIR resource in the shape the conformance checker consumes.
type Document struct {
	Name         string         `json:"name"`
	ContentType  ContentType    `json:"contentType"`
	ResourceType string         `json:"resourceType"`
	ID           string         `json:"id,omitempty"`
	Data         map[string]any `json:"data"`
	Raw          []byte         `json:"-"` // canonical JSON encoding of Data
}

// DefaultProfileURL returns the base StructureDefinition URL for a resource type.
func DefaultProfileURL(resourceType string) string {
	return "http://hl7.org/fhir/StructureDefinition/" + resourceType
}
