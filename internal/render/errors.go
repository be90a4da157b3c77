package render

import "errors"

// ErrInvalidDocument is returned when the input is not a portfolio document at all.
// Callers show a "not available" state instead of a partial page.
var ErrInvalidDocument = errors.New("invalid portfolio document")
