package service

import "errors"

var (
	// ErrMissingRequiredFields is returned when publishing a document without a name or about text.
	ErrMissingRequiredFields = errors.New("missing required fields")
	// ErrPortfolioNotFound is returned when no published portfolio matches the request.
	ErrPortfolioNotFound = errors.New("portfolio not found")
	// ErrSessionNotFound is returned when an edit session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionForbidden is returned when a session is used by someone other than its owner.
	ErrSessionForbidden = errors.New("session belongs to another owner")
	// ErrContentCorrupted is returned when stored portfolio content cannot be decoded.
	ErrContentCorrupted = errors.New("portfolio content is corrupted")
)
