package twiml

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/beevik/etree"
)

// XMLHeader is the declaration Document prepends to the serialized tree.
const XMLHeader = `<?xml version="1.0" encoding="UTF-8"?>`

// ContentType is the media type for serialized documents.
const ContentType = "application/xml"

// Serialize renders root and its subtree as canonical XML without a
// declaration. Attributes are written in ascending name order; an element's
// text precedes its children.
func Serialize(root *Element) string {
	doc := newDocument()
	doc.SetRoot(root.toEtree())
	s, err := doc.WriteToString()
	if err != nil {
		// etree only fails when the underlying writer fails; a strings.Builder never does.
		panic(fmt.Sprintf("twiml: serialize: %v", err))
	}
	return s
}

// String implements fmt.Stringer using Serialize.
func (e *Element) String() string {
	return Serialize(e)
}

// Document renders e as a complete XML document body.
func (e *Element) Document() string {
	return XMLHeader + Serialize(e)
}

// WriteTo writes the complete document to w.
func (e *Element) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, e.Document())
	return int64(n), err
}

func newDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.WriteSettings.CanonicalText = true
	doc.WriteSettings.CanonicalAttrVal = true
	return doc
}

func (e *Element) toEtree() *etree.Element {
	el := etree.NewElement(string(e.kind))

	names := make([]string, 0, len(e.attrs))
	for name := range e.attrs {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		el.CreateAttr(name, e.attrs[name])
	}

	if e.body != "" {
		el.SetText(e.body)
	}
	for _, child := range e.children {
		el.AddChild(child.toEtree())
	}
	return el
}

// Parse reads a markup document and rebuilds it through the same enum and
// nesting checks used by the builders. Constructor defaults are not applied:
// attributes appear exactly as written. Whitespace-only text is ignored.
func Parse(data string) (*Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(data); err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("parse markup: no root element")
	}
	return fromEtree(root)
}

func fromEtree(el *etree.Element) (*Element, error) {
	kind := Kind(el.Tag)
	if el.Space != "" || !kind.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, el.FullTag())
	}

	attrs := attrSet{}
	for _, a := range el.Attr {
		attrs[a.FullKey()] = a.Value
	}

	e, err := newElement(kind, attrs, strings.TrimSpace(el.Text()))
	if err != nil {
		return nil, err
	}
	for _, c := range el.ChildElements() {
		child, err := fromEtree(c)
		if err != nil {
			return nil, err
		}
		if _, err := e.Append(child); err != nil {
			return nil, err
		}
	}
	return e, nil
}
