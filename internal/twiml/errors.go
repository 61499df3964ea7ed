package twiml

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNesting is returned when a child kind is not allowed under its parent.
	ErrNesting = errors.New("illegal nesting")
	// ErrInvalidEnum is returned when an attribute value is outside its allowed set.
	ErrInvalidEnum = errors.New("invalid attribute value")
	// ErrUnknownKind is returned when parsing meets a tag outside the dialect.
	ErrUnknownKind = errors.New("unknown element")
)

// NestingError reports an append that the nesting table forbids.
type NestingError struct {
	Parent Kind
	Child  Kind
}

func (e *NestingError) Error() string {
	if e.Parent.IsLeaf() {
		return fmt.Sprintf("%s is not nestable", e.Parent)
	}
	return fmt.Sprintf("%s is not nestable inside %s", e.Child, e.Parent)
}

func (e *NestingError) Unwrap() error { return ErrNesting }

// EnumError reports an attribute value outside its enumerated set.
type EnumError struct {
	Kind    Kind
	Attr    string
	Value   string
	Allowed []string
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("invalid %s %s parameter %q, must be one of: %s",
		e.Kind, e.Attr, e.Value, strings.Join(e.Allowed, ", "))
}

func (e *EnumError) Unwrap() error { return ErrInvalidEnum }
