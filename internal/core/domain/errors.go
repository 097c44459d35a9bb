package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested session does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a session with the same ID exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates an uploaded file's type is not
	// one of the accepted formats (pdf, txt, csv).
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrParseFailed indicates an uploaded file is corrupt or empty.
	ErrParseFailed = errors.New("could not parse file")

	// ErrUnknownRole indicates a role with no configured topic scope.
	ErrUnknownRole = errors.New("unknown role")

	// ErrModelUnavailable indicates a model service could not be
	// created or reached.
	ErrModelUnavailable = errors.New("model service unavailable")
)
