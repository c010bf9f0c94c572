package ops

import (
	"github.com/rawbytedev/morsel/pkg/match"
)

// Literal matches the bytes of s. s must not be empty.
func Literal(s string) *match.Operator[byte, []byte, []byte] {
	if s == "" {
		panic(&match.ContractError{Op: "literal", Reason: "empty literal"})
	}
	last := len(s) - 1
	return match.Many(func(i int, b byte) match.Verdict {
		switch {
		case b != s[i]:
			return match.Invalid
		case i == last:
			return match.StopInclude
		}
		return match.Continue
	}, match.WithHint(match.Exact(len(s)))).Named("literal")
}

// While matches the longest non-empty run of bytes accepted by pred. The
// run needs a byte after it to end, running into the end of input is
// reported as end of stream.
func While(pred func(byte) bool, opts ...match.Option) *match.Operator[byte, []byte, []byte] {
	return match.Many(func(_ int, b byte) match.Verdict {
		if pred(b) {
			return match.Continue
		}
		return match.StopExclude
	}, opts...).Named("while")
}

// Until matches the bytes before the first byte accepted by stop.
func Until(stop func(byte) bool, opts ...match.Option) *match.Operator[byte, []byte, []byte] {
	return match.Many(func(_ int, b byte) match.Verdict {
		if stop(b) {
			return match.StopExclude
		}
		return match.Continue
	}, opts...).Named("until")
}

// Fixed matches the next n bytes. n must be positive.
func Fixed(n int, opts ...match.Option) *match.Operator[byte, []byte, []byte] {
	last := n - 1
	opts = append(opts, match.WithHint(match.Exact(n)))
	return match.Many(func(i int, _ byte) match.Verdict {
		if i == last {
			return match.StopInclude
		}
		return match.Continue
	}, opts...).Named("fixed")
}

// IsSpace reports ASCII whitespace.
func IsSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// IsDigit reports ASCII decimal digits.
func IsDigit(b byte) bool { return b >= '0' && b <= '9' }

// IsWord reports the bytes of ASCII identifiers.
func IsWord(b byte) bool {
	return b == '_' || IsDigit(b) || (b|0x20 >= 'a' && b|0x20 <= 'z')
}

// Escape decodes a backslash escape: \n \r \t \0, an escaped backslash or
// an escaped quote.
func Escape(quote byte) *match.Operator[byte, []byte, byte] {
	pair := match.Many(func(i int, b byte) match.Verdict {
		switch {
		case i > 0:
			return match.StopInclude
		case b == '\\':
			return match.Continue
		}
		return match.Invalid
	}, match.WithHint(match.Exact(2))).Named("escape")
	return match.Resolve(pair, func(b []byte) (byte, bool) {
		switch b[1] {
		case 'n':
			return '\n', true
		case 'r':
			return '\r', true
		case 't':
			return '\t', true
		case '0':
			return 0, true
		case '\\', quote:
			return b[1], true
		}
		return 0, false
	})
}

// Escaped matches the body of a quoted string up to the closing quote,
// decoding escapes on the way. A body without escapes is returned as a
// view of the input. A backslash that starts no known escape fails the
// match.
func Escaped(quote byte) *match.Operator[byte, []byte, []byte] {
	return match.Many(func(_ int, b byte) match.Verdict {
		switch b {
		case quote:
			return match.StopExclude
		case '\\':
			return match.Invalid
		}
		return match.Continue
	}, match.WithFilter(Escape(quote), match.FilterOverride)).Named("escaped")
}
