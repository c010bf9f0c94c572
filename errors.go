package morsel

import (
	"errors"
	"fmt"

	"github.com/rawbytedev/morsel/pkg/source"
)

var (
	// ErrEndOfStream reports a source exhausted while an operator still
	// needed input. It is the same value as source.ErrEndOfStream.
	ErrEndOfStream = source.ErrEndOfStream
	// ErrFailedOperation reports an operator that declined the input.
	ErrFailedOperation = errors.New("failed operation")
)

// DecodeError is returned by every decoder call that does not succeed.
// Err matches ErrEndOfStream or ErrFailedOperation under errors.Is.
type DecodeError struct {
	// Op is the operator name
	Op string
	// Offset is the cursor position when the call started
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("morsel: %s at offset %d: %v", e.Op, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
