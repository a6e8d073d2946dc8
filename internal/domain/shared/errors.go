package shared

import "errors"

// Error kinds reported by typed domain errors through errors.Is. The HTTP
// layer maps each kind to exactly one status code.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrSemantic = errors.New("semantic violation")
)
