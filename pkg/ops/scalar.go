// Package ops is a library of operators built from the match combinators.
package ops

import (
	"encoding/binary"
	"unsafe"

	"github.com/rawbytedev/morsel/internal/common"
	"github.com/rawbytedev/morsel/pkg/match"
	"golang.org/x/exp/constraints"
)

// Byte matches the byte c.
func Byte(c byte) *match.Operator[byte, byte, byte] {
	return match.One(func(b byte) bool { return b == c }).Named("byte")
}

// Any matches one byte of any value.
func Any() *match.Operator[byte, byte, byte] {
	return match.One(func(byte) bool { return true }).Named("any")
}

// In matches one byte that occurs in set.
func In(set string) *match.Operator[byte, byte, byte] {
	var table [256]bool
	for i := 0; i < len(set); i++ {
		table[set[i]] = true
	}
	return match.One(func(b byte) bool { return table[b] }).Named("in")
}

// Uint reads an unsigned integer of T's width in the given byte order.
func Uint[T constraints.Unsigned](order binary.ByteOrder, opts ...match.Option) *match.Operator[byte, []byte, T] {
	var zero T
	size := int(unsafe.Sizeof(zero))
	return match.Resolve(Fixed(size, opts...).Named("uint"), func(b []byte) (T, bool) {
		switch size {
		case 1:
			return T(b[0]), true
		case 2:
			return T(order.Uint16(b)), true
		case 4:
			return T(order.Uint32(b)), true
		default:
			return T(order.Uint64(b)), true
		}
	})
}

// Uvarint reads a base 128 varint. Encodings longer than ten bytes fail.
func Uvarint() *match.Operator[byte, []byte, uint64] {
	run := match.Many(func(i int, b byte) match.Verdict {
		switch {
		case b&0x80 == 0:
			return match.StopInclude
		case i == common.MaxVarintLen-1:
			return match.Invalid
		}
		return match.Continue
	}, match.WithHint(match.Bound(common.MaxVarintLen))).Named("uvarint")
	return match.Resolve(run, func(b []byte) (uint64, bool) {
		v, n := common.ReadVarUint(b)
		return v, n == len(b)
	})
}
