package models

import "errors"

// Domain specific errors shared across handlers and services.
var (
	ErrNotFound   = errors.New("requested item not found")
	ErrConflict   = errors.New("item already exists or conflict")
	ErrBadRequest = errors.New("bad request")
	ErrValidation = errors.New("validation failed")
	// ErrMalformedResponse marks a model response whose final payload could
	// not be parsed as the expected array.
	ErrMalformedResponse = errors.New("malformed model response")
)
