package common

import "fmt"

// MaxVarintLen is the longest encoding of a 64-bit varint.
const MaxVarintLen = 10

// WriteVarUintTo appends varint-encoded x to dst using a small stack scratch.
func WriteVarUintTo(dst []byte, x uint64) []byte {
	var scratch [MaxVarintLen]byte
	i := 0
	for x >= 0x80 {
		scratch[i] = byte(x) | 0x80
		x >>= 7
		i++
	}
	scratch[i] = byte(x)
	i++
	return append(dst, scratch[:i]...)
}

// ReadVarUint decodes a varint from b returning value and bytes consumed.
// A zero count means b did not hold a complete varint.
func ReadVarUint(b []byte) (uint64, int) {
	var x uint64
	var s uint
	for i, c := range b {
		if i == MaxVarintLen {
			return 0, 0
		}
		x |= uint64(c&0x7F) << s
		if c&0x80 == 0 {
			return x, i + 1
		}
		s += 7
	}
	return 0, 0
}

// AlignUp rounds ptr up to the next multiple of a. a must be a power of two.
func AlignUp(ptr, a int) int {
	if a <= 1 {
		return ptr
	}
	return (ptr + a - 1) &^ (a - 1)
}

// IsPow2 reports whether n is a positive power of two.
func IsPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Assertf panics when cond is false. It guards programming errors,
// never input-dependent failures. The arguments are boxed on every call,
// so hot paths test the condition themselves and call Panicf.
func Assertf(cond bool, format string, args ...any) {
	if !cond {
		Panicf(format, args...)
	}
}

// Panicf panics with a formatted programming error.
func Panicf(format string, args ...any) {
	panic(fmt.Sprintf("morsel: "+format, args...))
}
