package source

import "github.com/rawbytedev/morsel/internal/common"

// SliceReader is a Source over an in-memory byte slice. Reserve never copies
// and PeekSlice returns references into the original slice.
type SliceReader struct {
	buf    []byte
	offset int
}

var _ Source = (*SliceReader)(nil)

// NewSliceReader returns a reader positioned at the start of buf.
func NewSliceReader(buf []byte) *SliceReader {
	return &SliceReader{buf: buf}
}

// Reset points the reader at a new slice.
func (s *SliceReader) Reset(buf []byte) {
	s.buf = buf
	s.offset = 0
}

func (s *SliceReader) Reserve(n int) error {
	if n > len(s.buf)-s.offset {
		return ErrEndOfStream
	}
	return nil
}

func (s *SliceReader) Peek(i int) byte {
	if s.offset+i >= len(s.buf) {
		common.Panicf("peek %d past end of slice", i)
	}
	return s.buf[s.offset+i]
}

func (s *SliceReader) PeekSlice(i, n int) []byte {
	if s.offset+i+n > len(s.buf) {
		common.Panicf("peek slice [%d:%d] past end of slice", i, i+n)
	}
	return s.buf[s.offset+i : s.offset+i+n : s.offset+i+n]
}

func (s *SliceReader) Drop(n int) {
	if s.offset+n > len(s.buf) {
		common.Panicf("drop %d past end of slice", n)
	}
	s.offset += n
}

func (s *SliceReader) Pos() int { return s.offset }

func (s *SliceReader) Direct() bool { return true }

// Remaining returns the number of unread bytes.
func (s *SliceReader) Remaining() int { return len(s.buf) - s.offset }

// Bytes returns the unread part of the input.
func (s *SliceReader) Bytes() []byte { return s.buf[s.offset:] }
