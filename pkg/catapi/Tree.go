package catapi

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

/*
Tree is the untyped shape of an XML response. Element names become map keys,
text-only elements become strings and repeated siblings become sequences.
Attributes are stored alongside child elements under their own name. The
document element itself is the root, so paths start below it, e.g.
data.images.image.
*/
type Tree struct {
	value any
}

// Text mixed in with attributes or child elements lands under this key.
const textKey = "#text"

// DecodeTree parses an XML document into a Tree.
func DecodeTree(r io.Reader) (*Tree, error) {
	var (
		err error
		tok xml.Token
	)

	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel

	for {
		if tok, err = decoder.Token(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("document has no root element")
			}

			return nil, fmt.Errorf("error reading xml: %w", err)
		}

		if start, ok := tok.(xml.StartElement); ok {
			value, err := decodeElement(decoder, start)
			if err != nil {
				return nil, err
			}

			return &Tree{value: value}, nil
		}
	}
}

func decodeElement(decoder *xml.Decoder, start xml.StartElement) (any, error) {
	var (
		err  error
		tok  xml.Token
		text strings.Builder
	)

	children := map[string]any{}

	for _, attr := range start.Attr {
		children[attr.Name.Local] = attr.Value
	}

	for {
		if tok, err = decoder.Token(); err != nil {
			return nil, fmt.Errorf("error reading element '%s': %w", start.Name.Local, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeElement(decoder, t)
			if err != nil {
				return nil, err
			}

			addChild(children, t.Name.Local, child)

		case xml.CharData:
			text.Write(t)

		case xml.EndElement:
			trimmed := strings.TrimSpace(text.String())

			if len(children) == 0 {
				return trimmed, nil
			}

			if trimmed != "" {
				children[textKey] = trimmed
			}

			return children, nil
		}
	}
}

// Child values are only ever strings or maps, so an existing slice always
// means the key has repeated before.
func addChild(children map[string]any, name string, value any) {
	existing, ok := children[name]

	if !ok {
		children[name] = value
		return
	}

	if list, isList := existing.([]any); isList {
		children[name] = append(list, value)
		return
	}

	children[name] = []any{existing, value}
}

/*
Path walks down the tree by element name. A missing key, or walking into a
string or a sequence, yields an empty Tree rather than nil.
*/
func (t *Tree) Path(keys ...string) *Tree {
	current := t

	for _, key := range keys {
		if current == nil {
			return &Tree{}
		}

		m, ok := current.value.(map[string]any)
		if !ok {
			return &Tree{}
		}

		next, ok := m[key]
		if !ok {
			return &Tree{}
		}

		current = &Tree{value: next}
	}

	if current == nil {
		return &Tree{}
	}

	return current
}

func (t *Tree) Exists() bool {
	return t != nil && t.value != nil
}

// String returns the text of a leaf node, or an empty string for anything else.
func (t *Tree) String() string {
	if t == nil {
		return ""
	}

	if s, ok := t.value.(string); ok {
		return s
	}

	return ""
}

func (t *Tree) Get(key string) string {
	return t.Path(key).String()
}

func (t *Tree) IsList() bool {
	if t == nil {
		return false
	}

	_, ok := t.value.([]any)
	return ok
}

/*
List normalizes the node into a sequence. A single node becomes a one-element
slice and a missing node becomes an empty one, so callers never have to care
whether the API returned one result or many.
*/
func (t *Tree) List() []*Tree {
	if !t.Exists() {
		return []*Tree{}
	}

	if s, ok := t.value.(string); ok && s == "" {
		return []*Tree{}
	}

	list, ok := t.value.([]any)
	if !ok {
		return []*Tree{t}
	}

	result := make([]*Tree, 0, len(list))

	for _, item := range list {
		result = append(result, &Tree{value: item})
	}

	return result
}

// Value exposes the raw decoded value: a string, map[string]any or []any.
func (t *Tree) Value() any {
	if t == nil {
		return nil
	}

	return t.value
}
