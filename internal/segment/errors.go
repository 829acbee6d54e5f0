package segment

import "errors"

var (
	// ErrDegenerateFrame marks a body too small to carry a width profile.
	ErrDegenerateFrame = errors.New("degenerate frame")
	// ErrPartitionRange marks a mirrored partition index outside the width profile.
	ErrPartitionRange = errors.New("partition index out of range")
	// ErrPartitionLookup marks a partition coordinate missing from the boundary curves.
	ErrPartitionLookup = errors.New("partition coordinate not found")
)
