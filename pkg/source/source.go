// Package source provides the byte cursors consumed by the matching engine.
//
// Every Source follows the same discipline: Reserve is the only fallible
// call, and Peek, PeekSlice and Drop may only touch bytes covered by the last
// successful Reserve. Violations are programming errors and panic.
package source

import "errors"

// ErrEndOfStream is returned by Reserve when the source cannot supply the
// requested number of bytes.
var ErrEndOfStream = errors.New("end of stream")

// Source is a forward-only byte cursor. Offsets passed to Peek, PeekSlice and
// Drop are relative to the cursor.
type Source interface {
	// Reserve makes n bytes past the cursor available for peeking.
	Reserve(n int) error
	// Peek returns the byte i positions past the cursor.
	Peek(i int) byte
	// PeekSlice returns n bytes starting i positions past the cursor. The
	// slice aliases the source memory.
	PeekSlice(i, n int) []byte
	// Drop advances the cursor by n reserved bytes.
	Drop(n int)
	// Pos returns the absolute cursor position.
	Pos() int
	// Direct reports whether the whole input is addressable, making slices
	// returned by PeekSlice stable for the lifetime of the input.
	Direct() bool
}
