package track

import "errors"

var (
	// ErrUnknownField is returned when a role is not declared by any backing
	// chunk schema, the fusion bag, or the points' field maps.
	ErrUnknownField = errors.New("unknown field")

	// ErrIndexOutOfRange is returned for positional access outside [0, len).
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrInvalidIndex is returned for subset index lists containing
	// duplicates or out-of-range entries.
	ErrInvalidIndex = errors.New("invalid subset index")

	// ErrConflictingInit is returned when a trajectory is constructed from
	// both an explicit point list and a chunk.
	ErrConflictingInit = errors.New("conflicting trajectory initialization")
)
