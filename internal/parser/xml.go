package parser

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
)

const (
	fhirNamespace  = "http://hl7.org/fhir"
	xhtmlNamespace = "http://www.w3.org/1999/xhtml"
)

// repeatingElements are always decoded as arrays, even with a single occurrence.
// XML carries no cardinality, so this mirrors the max="*" elements of the common R4 resources.
var repeatingElements = map[string]struct{}{
	"identifier": {}, "name": {}, "telecom": {}, "address": {}, "given": {}, "prefix": {},
	"suffix": {}, "line": {}, "coding": {}, "extension": {}, "modifierExtension": {},
	"contact": {}, "contained": {}, "entry": {}, "link": {}, "category": {}, "performer": {},
	"component": {}, "referenceRange": {}, "interpretation": {}, "note": {},
	"communication": {}, "generalPractitioner": {}, "participant": {}, "reasonCode": {},
	"reasonReference": {}, "basedOn": {}, "partOf": {}, "hasMember": {}, "derivedFrom": {},
	"photo": {}, "qualification": {}, "parameter": {}, "issue": {}, "location": {},
	"profile": {}, "security": {}, "tag": {}, "dosageInstruction": {}, "bodySite": {},
}

// integerElements hold FHIR integer or decimal values outside of Quantity.
var integerElements = map[string]struct{}{
	"valueInteger": {}, "valueDecimal": {}, "rank": {}, "sequence": {}, "count": {},
	"multipleBirthInteger": {}, "numberOfSeries": {}, "numberOfInstances": {}, "total": {},
}

// resourceContainers hold exactly one nested resource element.
var resourceContainers = map[string]struct{}{
	"resource": {}, "contained": {}, "outcome": {}, "response": {},
}

type xmlNode struct {
	name     string
	space    string
	attrs    map[string]string
	children []*xmlNode
	xhtml    string
	isXHTML  bool
}

// decodeXML decodes a FHIR XML resource into the same tree shape encoding/json produces
// for the equivalent FHIR JSON resource.
func decodeXML(data []byte) (map[string]any, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var root *xmlNode
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if root != nil {
			return nil, errors.New("multiple root elements")
		}
		if root, err = readElement(dec, start); err != nil {
			return nil, err
		}
	}
	if root == nil {
		return nil, errors.New("no root element")
	}
	if root.space != fhirNamespace {
		return nil, fmt.Errorf("root element %q is not in the %s namespace", root.name, fhirNamespace)
	}
	return resourceToMap(root), nil
}

func readElement(dec *xml.Decoder, start xml.StartElement) (*xmlNode, error) {
	node := &xmlNode{name: start.Name.Local, space: start.Name.Space, attrs: map[string]string{}}
	for _, attr := range start.Attr {
		if attr.Name.Space == "" {
			node.attrs[attr.Name.Local] = attr.Value
		}
	}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "div" && t.Name.Space == xhtmlNamespace {
				var div struct {
					Inner string `xml:",innerxml"`
				}
				if err := dec.DecodeElement(&div, &t); err != nil {
					return nil, err
				}
				node.children = append(node.children, &xmlNode{name: "div", isXHTML: true, xhtml: div.Inner})
				continue
			}
			child, err := readElement(dec, t)
			if err != nil {
				return nil, err
			}
			node.children = append(node.children, child)
		case xml.EndElement:
			return node, nil
		}
	}
}

func resourceToMap(n *xmlNode) map[string]any {
	m := elementsToMap(n)
	m["resourceType"] = n.name
	return m
}

func elementsToMap(n *xmlNode) map[string]any {
	m := map[string]any{}
	for _, key := range []string{"id", "url"} {
		if v, ok := n.attrs[key]; ok {
			m[key] = v
		}
	}

	var order []string
	groups := map[string][]*xmlNode{}
	for _, child := range n.children {
		if _, seen := groups[child.name]; !seen {
			order = append(order, child.name)
		}
		groups[child.name] = append(groups[child.name], child)
	}

	quantityLike := hasChild(n, "unit") || (hasChild(n, "code") && hasChild(n, "value"))
	for _, name := range order {
		nodes := groups[name]
		values := make([]any, len(nodes))
		extras := make([]any, len(nodes))
		hasExtras := false
		for i, child := range nodes {
			values[i], extras[i] = convertElement(child, quantityLike)
			if extras[i] != nil {
				hasExtras = true
			}
		}

		_, repeating := repeatingElements[name]
		if len(nodes) > 1 || repeating {
			m[name] = values
			if hasExtras {
				m["_"+name] = extras
			}
			continue
		}
		if values[0] != nil {
			m[name] = values[0]
		}
		if hasExtras {
			m["_"+name] = extras[0]
		}
	}
	return m
}

// convertElement returns the JSON value of an element plus, for primitives carrying an id or
// extensions, the companion "_name" object.
func convertElement(n *xmlNode, quantityLike bool) (any, any) {
	if n.isXHTML {
		return fmt.Sprintf(`<div xmlns="%s">%s</div>`, xhtmlNamespace, n.xhtml), nil
	}
	if _, ok := resourceContainers[n.name]; ok && len(n.children) == 1 && len(n.attrs) == 0 {
		if inner := n.children[0]; inner.space == fhirNamespace && startsUpper(inner.name) {
			return resourceToMap(inner), nil
		}
	}

	raw, isPrimitive := n.attrs["value"]
	if !isPrimitive {
		return elementsToMap(n), nil
	}

	value := primitiveValue(n.name, raw, quantityLike)
	var extra any
	if id, hasID := n.attrs["id"]; hasID || len(n.children) > 0 {
		companion := elementsToMap(&xmlNode{children: n.children, attrs: map[string]string{}})
		if hasID {
			companion["id"] = id
		}
		extra = companion
	}
	return value, extra
}

func primitiveValue(name, raw string, quantityLike bool) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	_, numeric := integerElements[name]
	if numeric || (name == "value" && quantityLike) {
		if _, err := strconv.ParseFloat(raw, 64); err == nil {
			return json.Number(raw)
		}
	}
	return raw
}

func hasChild(n *xmlNode, name string) bool {
	for _, child := range n.children {
		if child.name == name {
			return true
		}
	}
	return false
}

func startsUpper(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}
