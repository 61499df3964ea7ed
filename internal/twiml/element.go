package twiml

import (
	"maps"
	"slices"
	"strconv"
)

// Element is one node of a markup document. Attributes are fixed at
// construction; children are only ever appended.
type Element struct {
	kind     Kind
	attrs    map[string]string
	body     string
	children []*Element
}

// newElement validates attrs against the enum table for kind and returns the
// element. attrs is owned by the element afterwards.
func newElement(kind Kind, attrs attrSet, body string) (*Element, error) {
	for name, allowed := range enums[kind] {
		v, ok := attrs[name]
		if !ok {
			continue
		}
		if !slices.Contains(allowed, v) {
			return nil, &EnumError{Kind: kind, Attr: name, Value: v, Allowed: allowed}
		}
	}
	if attrs == nil {
		attrs = attrSet{}
	}
	return &Element{kind: kind, attrs: attrs, body: body}, nil
}

// Kind returns the element's kind.
func (e *Element) Kind() Kind { return e.kind }

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

// Attrs returns a copy of the element's attributes.
func (e *Element) Attrs() map[string]string {
	return maps.Clone(e.attrs)
}

// Body returns the element's text content, empty when it has none.
func (e *Element) Body() string { return e.body }

// Children returns the element's children in append order.
func (e *Element) Children() []*Element {
	return slices.Clone(e.children)
}

// Append adds child as the last child of e and returns child so further
// nesting can chain off it. It fails with a *NestingError when e is a leaf
// or child's kind is not in e's nestable set.
func (e *Element) Append(child *Element) (*Element, error) {
	if !e.kind.CanContain(child.kind) {
		return nil, &NestingError{Parent: e.kind, Child: child.kind}
	}
	e.children = append(e.children, child)
	return child, nil
}

// Must panics if err is non-nil. It is meant for documents built from
// literals, where an error is a programming mistake.
func Must(e *Element, err error) *Element {
	if err != nil {
		panic(err)
	}
	return e
}

// Int returns a pointer to n, for optional integer attributes.
func Int(n int) *int { return &n }

// Bool returns a pointer to b, for optional boolean attributes.
func Bool(b bool) *bool { return &b }

// attrSet collects attributes, dropping unset values. Empty strings and nil
// pointers are unset; a zero int or false bool is a real value and is kept.
type attrSet map[string]string

func (a attrSet) str(name, v string) attrSet {
	if v != "" {
		a[name] = v
	}
	return a
}

func (a attrSet) num(name string, v *int) attrSet {
	if v != nil {
		a[name] = strconv.Itoa(*v)
	}
	return a
}

func (a attrSet) flag(name string, v *bool) attrSet {
	if v != nil {
		a[name] = strconv.FormatBool(*v)
	}
	return a
}
