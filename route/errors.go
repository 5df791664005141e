package route

import "errors"

// Sentinel errors for route tree construction and lookup.
var (
	// ErrNilDescriptor indicates a nil descriptor was provided.
	ErrNilDescriptor = errors.New("route: descriptor is nil")

	// ErrEmptyTemplate indicates a descriptor without a template position.
	ErrEmptyTemplate = errors.New("route: segment template is required")

	// ErrDuplicateSegment indicates two segments share an identity.
	ErrDuplicateSegment = errors.New("route: duplicate segment identity")

	// ErrInvalidSlot indicates a slot name is empty or contains a slash.
	ErrInvalidSlot = errors.New("route: slot name is invalid")

	// ErrSegmentNotFound indicates a lookup for an unknown segment.
	ErrSegmentNotFound = errors.New("route: segment not found")
)
