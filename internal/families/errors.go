package families

import "errors"

var (
	// ErrNotFound indicates the family or member does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyExists is returned when an owner already has a family.
	ErrAlreadyExists = errors.New("family already exists")
)
