package segcache

import "errors"

// Sentinel errors for cache operations.
var (
	// ErrNilSegment indicates a nil segment was passed to key derivation.
	ErrNilSegment = errors.New("segcache: segment is nil")

	// ErrNilPopulation indicates a nil population function.
	ErrNilPopulation = errors.New("segcache: population function is nil")
)
