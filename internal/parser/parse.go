// Package parser decodes FHIR resources from their wire encodings into the checker input shape.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/huangsam/fhirgate/schema"
)

var (
	// ErrParse means the content is not a well-formed FHIR resource.
	ErrParse = errors.New("parse error")

	// ErrUnsupportedContentType means the content type is not JSON or XML.
	ErrUnsupportedContentType = errors.New("unsupported content type")
)

// extensionContentTypes maps lowercase file extensions to content types.
var extensionContentTypes = map[string]schema.ContentType{
	".json": schema.JSONContent,
	".xml":  schema.XMLContent,
}

// DetectContentType returns the content type implied by the file extension of path.
func DetectContentType(path string) (schema.ContentType, error) {
	ext := strings.ToLower(filepath.Ext(path))
	ct, ok := extensionContentTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: extension %q", ErrUnsupportedContentType, ext)
	}
	return ct, nil
}

// ParseContentType resolves a content type name such as json, xml or application/fhir+json.
func ParseContentType(name string) (schema.ContentType, error) {
	v := strings.ToLower(strings.TrimSpace(name))
	switch {
	case v == "json", strings.HasSuffix(v, "/json"), strings.HasSuffix(v, "+json"):
		return schema.JSONContent, nil
	case v == "xml", strings.HasSuffix(v, "/xml"), strings.HasSuffix(v, "+xml"):
		return schema.XMLContent, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedContentType, name)
	}
}

// Parse decodes data into a Document. Malformed input wraps ErrParse.
func Parse(name string, data []byte, ct schema.ContentType) (schema.Document, error) {
	var (
		tree map[string]any
		err  error
	)
	switch ct {
	case schema.JSONContent:
		tree, err = decodeJSON(data)
	case schema.XMLContent:
		tree, err = decodeXML(data)
	default:
		return schema.Document{}, fmt.Errorf("%w: %q", ErrUnsupportedContentType, ct)
	}
	if err != nil {
		return schema.Document{}, fmt.Errorf("%w: %s: %v", ErrParse, name, err)
	}

	resourceType, _ := tree["resourceType"].(string)
	if resourceType == "" {
		return schema.Document{}, fmt.Errorf("%w: %s: missing resourceType", ErrParse, name)
	}
	id, _ := tree["id"].(string)

	raw := data
	if ct != schema.JSONContent {
		if raw, err = json.Marshal(tree); err != nil {
			return schema.Document{}, fmt.Errorf("%w: %s: %v", ErrParse, name, err)
		}
	}

	return schema.Document{
		Name:         name,
		ContentType:  ct,
		ResourceType: resourceType,
		ID:           id,
		Data:         tree,
		Raw:          raw,
	}, nil
}

// decodeJSON decodes exactly one JSON object, keeping numbers as json.Number.
func decodeJSON(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	tree, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("top-level value is not an object")
	}
	return tree, nil
}
