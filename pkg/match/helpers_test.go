package match

import (
	"encoding/binary"
	"strings"

	"github.com/rawbytedev/morsel/pkg/source"
)

func direct(s string) (*Provider, *source.SliceReader, []byte) {
	in := []byte(s)
	r := source.NewSliceReader(in)
	return NewProvider(r), r, in
}

func stream(s string, capacity int) *Provider {
	return NewProvider(source.NewStreamReader(strings.NewReader(s), capacity))
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func digits() *Operator[byte, []byte, []byte] {
	return Many(func(_ int, b byte) Verdict {
		if isDigit(b) {
			return Continue
		}
		return StopExclude
	})
}

// until runs up to, not including, the first stop byte.
func until(stop byte, opts ...Option) *Operator[byte, []byte, []byte] {
	return Many(func(_ int, b byte) Verdict {
		if b == stop {
			return StopExclude
		}
		return Continue
	}, opts...)
}

func byteIs(c byte) *Operator[byte, byte, byte] {
	return One(func(b byte) bool { return b == c })
}

// escape reads a two byte escape like \n as the byte it stands for.
func escape() *Operator[byte, []byte, byte] {
	pair := Many(func(i int, b byte) Verdict {
		switch {
		case i == 0 && b == '\\':
			return Continue
		case i == 0:
			return Invalid
		default:
			return StopInclude
		}
	}, WithHint(Exact(2)))
	return Resolve(pair, func(b []byte) (byte, bool) {
		switch b[1] {
		case 'n':
			return '\n', true
		case 't':
			return '\t', true
		case '\\', '"':
			return b[1], true
		}
		return 0, false
	})
}

func word16() *Operator[byte, []byte, uint16] {
	pair := Many(func(i int, _ byte) Verdict {
		if i == 1 {
			return StopInclude
		}
		return Continue
	}, WithHint(Exact(2)))
	return Resolve(pair, func(b []byte) (uint16, bool) {
		return binary.LittleEndian.Uint16(b), true
	})
}
