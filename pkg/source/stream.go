package source

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/rawbytedev/morsel/internal/common"
)

// maxEmptyReads bounds consecutive (0, nil) reads before giving up.
const maxEmptyReads = 100

// StreamReader is a Source that keeps a bounded window of an io.Reader.
// Slices returned by PeekSlice stay valid only until the next Reserve that
// has to refill the window.
type StreamReader struct {
	r     io.Reader
	buf   []byte
	start int // first unread byte in buf
	end   int // one past the last buffered byte
	pos   int // absolute position of buf[start]
	err   error
	// release frees a decompressor wrapped around r
	release func()
}

var _ Source = (*StreamReader)(nil)

// NewStreamReader returns a reader with a window of capacity bytes.
func NewStreamReader(r io.Reader, capacity int) *StreamReader {
	common.Assertf(capacity > 0, "stream capacity must be positive, got %d", capacity)
	return &StreamReader{r: r, buf: make([]byte, capacity)}
}

// NewZstdStreamReader returns a StreamReader over the decompressed contents
// of a zstd stream.
func NewZstdStreamReader(r io.Reader, capacity int) (*StreamReader, error) {
	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd stream: %w", err)
	}
	s := NewStreamReader(zr, capacity)
	s.release = zr.Close
	return s, nil
}

// Close releases resources held by the reader itself. The underlying
// io.Reader is left open.
func (s *StreamReader) Close() error {
	if s.release != nil {
		s.release()
		s.release = nil
	}
	return nil
}

// Cap returns the window capacity, the largest n Reserve accepts.
func (s *StreamReader) Cap() int { return len(s.buf) }

// Buffered returns the number of unread bytes held in the window.
func (s *StreamReader) Buffered() int { return s.end - s.start }

func (s *StreamReader) Reserve(n int) error {
	if n > len(s.buf) {
		common.Panicf("reserve %d exceeds stream capacity %d", n, len(s.buf))
	}
	if s.end-s.start >= n {
		return nil
	}
	if s.err != nil {
		return s.err
	}
	if s.start > 0 {
		s.end = copy(s.buf, s.buf[s.start:s.end])
		s.start = 0
	}
	for empty := 0; s.end < n; {
		m, err := s.r.Read(s.buf[s.end:])
		s.end += m
		if err != nil {
			// the error is kept for the refill after this window drains
			s.err = endOfStream(err)
			if s.end < n {
				return s.err
			}
			return nil
		}
		if m > 0 {
			empty = 0
			continue
		}
		if empty++; empty == maxEmptyReads {
			s.err = endOfStream(io.ErrNoProgress)
			return s.err
		}
	}
	return nil
}

func endOfStream(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrEndOfStream
	}
	return fmt.Errorf("%w: %w", ErrEndOfStream, err)
}

func (s *StreamReader) Peek(i int) byte {
	if s.start+i >= s.end {
		common.Panicf("peek %d past reserved window", i)
	}
	return s.buf[s.start+i]
}

func (s *StreamReader) PeekSlice(i, n int) []byte {
	if s.start+i+n > s.end {
		common.Panicf("peek slice [%d:%d] past reserved window", i, i+n)
	}
	return s.buf[s.start+i : s.start+i+n : s.start+i+n]
}

func (s *StreamReader) Drop(n int) {
	if s.start+n > s.end {
		common.Panicf("drop %d past reserved window", n)
	}
	s.start += n
	s.pos += n
}

func (s *StreamReader) Pos() int { return s.pos }

func (s *StreamReader) Direct() bool { return false }
