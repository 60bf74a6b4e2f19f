package insurance

import "errors"

var (
	// ErrNotFound indicates the plan or document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")
)
