package buffer

import "errors"

var (
	// ErrRangeOutOfBounds indicates a Replace range outside the text.
	ErrRangeOutOfBounds = errors.New("replace range out of bounds")
)
