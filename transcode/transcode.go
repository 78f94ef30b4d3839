// Package transcode converts hierarchical XML documents into canonical
// structured values without schema knowledge.
//
// An element with no child elements becomes a leaf string. An element with
// child elements becomes a map keyed by child tag names. Attributes are kept
// under the reserved AttrsKey; when a childless element carries attributes
// its text moves under TextKey so both survive. Sibling elements sharing a
// tag name are locally indistinguishable from a single optional element, so
// the caller supplies a Schema naming the tags that must always decode as
// arrays; every other repeated tag collapses to the last-seen sibling.
package transcode

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/vtelemetry/vsphere_sdk/common"
)

// Reserved keys in decoded maps. Child element names never collide with
// them because neither is a valid XML name.
const (
	// AttrsKey holds an element's attributes as map[string]any of strings
	AttrsKey = "@attributes"
	// TextKey holds the character data of a childless element that also
	// carries attributes
	TextKey = "#text"
)

// Decode converts an XML document into its canonical value, returned as a
// one-entry map keyed by the root tag's local name. It is a pure function
// of (doc, schema): identical inputs always produce identical output.
// Failures wrap common.ErrProtocol.
func Decode(doc []byte, schema *Schema) (any, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: document contains no elements", common.ErrProtocol)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrProtocol, err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			value, err := decodeElement(dec, start, schema)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", common.ErrProtocol, err)
			}
			return map[string]any{start.Name.Local: value}, nil
		}
	}
}

// decodeElement consumes tokens up to and including start's end element
func decodeElement(dec *xml.Decoder, start xml.StartElement, schema *Schema) (any, error) {
	var attrs map[string]any
	if len(start.Attr) > 0 {
		attrs = make(map[string]any, len(start.Attr))
		for _, a := range start.Attr {
			attrs[a.Name.Local] = a.Value
		}
	}

	var children map[string]any
	var text strings.Builder

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("unterminated element <%s>: %v", start.Name.Local, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeElement(dec, t, schema)
			if err != nil {
				return nil, err
			}
			if children == nil {
				children = make(map[string]any)
			}
			name := t.Name.Local
			if schema.Array(name) {
				arr, _ := children[name].([]any)
				children[name] = append(arr, child)
			} else {
				// last-seen sibling wins for non-array tags
				children[name] = child
			}
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			return assemble(attrs, children, text.String()), nil
		}
	}
}

// assemble builds the canonical value for one element
func assemble(attrs, children map[string]any, text string) any {
	if children != nil {
		if attrs != nil {
			children[AttrsKey] = attrs
		}
		return children
	}
	leaf := strings.TrimSpace(text)
	if attrs == nil {
		return leaf
	}
	return map[string]any{AttrsKey: attrs, TextKey: leaf}
}

// EmitJSON renders a decoded value as JSON text. Control characters,
// backslashes and double quotes in leaf text are escaped by the encoding;
// map keys are emitted in sorted order so identical values always produce
// identical text.
func EmitJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: encoding value: %v", common.ErrProtocol, err)
	}
	return string(data), nil
}

// Unwrap locates the <operation>Response element beneath the document body
// and returns its value. When the response element is absent the whole body
// is passed through unchanged; when no envelope is present the input itself
// is the body.
func Unwrap(root any, operation string) any {
	body := root
	if env, ok := Field(root, "Envelope"); ok {
		if b, ok := Field(env, "Body"); ok {
			body = b
		}
	}
	if resp, ok := Field(body, operation+"Response"); ok {
		return resp
	}
	return body
}

// Field returns the named entry of a decoded map value
func Field(v any, key string) (any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	val, ok := m[key]
	return val, ok
}

// ArrayField returns the named force-array entry of a decoded map value.
// A tag with zero occurrences decodes to the empty array.
func ArrayField(v any, key string) []any {
	val, ok := Field(v, key)
	if !ok {
		return nil
	}
	arr, _ := val.([]any)
	return arr
}

// Text returns the character data of a decoded value: the value itself for
// a plain leaf, its TextKey entry for an attributed leaf, "" otherwise
func Text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		s, _ := t[TextKey].(string)
		return s
	default:
		return ""
	}
}

// Ref interprets a decoded value as a managed object reference: the element
// text is the identifier and the "type" attribute is the object kind
func Ref(v any) (common.ObjectRef, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return common.ObjectRef{}, fmt.Errorf("%w: object reference has no type attribute", common.ErrProtocol)
	}
	attrs, _ := m[AttrsKey].(map[string]any)
	kind, _ := attrs["type"].(string)
	value := Text(v)
	if kind == "" || value == "" {
		return common.ObjectRef{}, fmt.Errorf("%w: incomplete object reference", common.ErrProtocol)
	}
	return common.ObjectRef{Kind: kind, Value: value}, nil
}

// RefField reads a managed object reference from the named entry of a
// decoded map value
func RefField(v any, key string) (common.ObjectRef, error) {
	val, ok := Field(v, key)
	if !ok {
		return common.ObjectRef{}, fmt.Errorf("%w: missing %q element", common.ErrProtocol, key)
	}
	ref, err := Ref(val)
	if err != nil {
		return common.ObjectRef{}, fmt.Errorf("element %q: %w", key, err)
	}
	return ref, nil
}
