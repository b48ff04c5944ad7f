package chunk

import "errors"

var (
	// ErrInvalidSize is returned when the target chunk size is not positive.
	ErrInvalidSize = errors.New("chunk size must be positive")

	// ErrInvalidOverlap is returned when the overlap is negative.
	ErrInvalidOverlap = errors.New("chunk overlap cannot be negative")

	// ErrOverlapTooLarge is returned when the overlap is not smaller than
	// the chunk size.
	ErrOverlapTooLarge = errors.New("chunk overlap must be smaller than chunk size")
)
