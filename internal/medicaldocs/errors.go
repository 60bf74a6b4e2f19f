package medicaldocs

import "errors"

var (
	// ErrNotFound indicates the document or category does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoFile is returned when downloading a document without a file.
	ErrNoFile = errors.New("document has no file")
)
