package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint rejected the write.
	ErrAlreadyExists = errors.New("already exists")
	// ErrForbidden indicates the caller does not own the entity.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput indicates the request failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict indicates the entity is in a state that rejects the change.
	ErrConflict = errors.New("conflict")
)
