// Package wireframe reads and writes compact binary frames.
//
// Every frame is laid out as
//
//	magic(2) type(1) length(4) body crc(4)
//
// where length counts the whole frame and the CRC32 (IEEE) covers
// everything between the magic and the CRC. Integers are little endian.
package wireframe

import (
	"errors"
	"fmt"
)

// Magic opens every frame.
var Magic = [2]byte{0xCF, 0x57}

// Frame types.
const (
	TypeData      byte = 0x01
	TypeError     byte = 0x02
	TypeHandshake byte = 0x03
)

// Data frame flags.
const (
	// FlagHasOffsetTable marks a data frame carrying an offset table.
	FlagHasOffsetTable byte = 1 << 0
	// FlagCompressed marks a zstd compressed payload.
	FlagCompressed byte = 1 << 1
	// FlagFinal marks the last frame of a message.
	FlagFinal byte = 1 << 2
)

const (
	headerLen = 2 + 1 + 4
	crcLen    = 4
	// smallest bodies: flags; code and data length; handshake fields
	minData      = 1
	minError     = 1 + 2
	minHandshake = 2 + 2 + 4 + 2
)

// DefaultMaxFrame bounds frames read by a Reader without WithMaxFrame.
const DefaultMaxFrame = 16 << 20

var (
	ErrBadMagic    = errors.New("wireframe: bad magic")
	ErrUnknownType = errors.New("wireframe: unknown frame type")
	ErrLength      = errors.New("wireframe: bad frame length")
	ErrMalformed   = errors.New("wireframe: malformed frame body")
	ErrTooLarge    = errors.New("wireframe: frame too large")
)

// ChecksumError is returned when a frame fails its CRC check.
type ChecksumError struct {
	Offset   int
	Expected uint32
	Got      uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("wireframe: crc mismatch at offset %d: expected %08x, got %08x", e.Offset, e.Expected, e.Got)
}

// Handshake opens a session.
type Handshake struct {
	VersionMask uint16
	MTU         uint16
	TimeoutMS   uint32
	AlgCodes    []byte
}

// Frame is one decoded frame. Only the fields of its type are set.
type Frame struct {
	Type  byte
	Flags byte
	// Offsets is the offset table of a data frame
	Offsets []uint32
	// Payload is the data of a data or error frame, decompressed when the
	// frame was compressed
	Payload []byte
	// Code is the error code of an error frame
	Code      byte
	Handshake *Handshake
}

// Final reports whether the frame carries FlagFinal.
func (f *Frame) Final() bool { return f.Flags&FlagFinal != 0 }

func typeName(t byte) string {
	switch t {
	case TypeData:
		return "data"
	case TypeError:
		return "error"
	case TypeHandshake:
		return "handshake"
	default:
		return fmt.Sprintf("type(%#x)", t)
	}
}

func minBody(t byte) (int, bool) {
	switch t {
	case TypeData:
		return minData, true
	case TypeError:
		return minError, true
	case TypeHandshake:
		return minHandshake, true
	}
	return 0, false
}
