package model

import "errors"

var (
	// ErrIndexOutOfRange is returned when an array mutation targets a missing element.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrUnknownField is returned when a field path does not name a document leaf.
	ErrUnknownField = errors.New("unknown field")
	// ErrUnknownArray is returned when an array name does not name a mutable array.
	ErrUnknownArray = errors.New("unknown array")
	// ErrTemplateMismatch is returned when an appended template has the wrong element type.
	ErrTemplateMismatch = errors.New("template does not match array element type")
)
