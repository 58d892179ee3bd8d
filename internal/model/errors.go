package model

import "errors"

// Error taxonomy shared by the codec, the transforms and the face.
var (
	// ErrResourceRead reports a backing store that could not serve a range.
	ErrResourceRead = errors.New("resource read failed")
	// ErrFormat reports a corrupt or unsupported encoded image.
	ErrFormat = errors.New("invalid image format")
	// ErrUsage reports a caller invariant violation; the operation was a no-op.
	ErrUsage = errors.New("invalid usage")
	// ErrOutOfMemory reports an allocation past the memory budget.
	ErrOutOfMemory = errors.New("out of memory")
)
