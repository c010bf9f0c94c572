// Package morsel decodes byte input with operators built from pkg/match.
//
// A Decoder wraps one source and keeps its cursor. Skip drops a match,
// Take returns it and Peek evaluates without moving the cursor, leaving the
// caller to decide afterwards. Failed calls never rewind: whatever an
// operator drained from a stream before failing stays consumed.
package morsel

import (
	"io"
	"log"

	"github.com/rawbytedev/morsel/pkg/match"
	"github.com/rawbytedev/morsel/pkg/source"
)

// Decoder runs operators against a source.
type Decoder struct {
	src    source.Source
	slice  *source.SliceReader
	p      *match.Provider
	logger *log.Logger
	closer io.Closer
}

// NewDecoder decodes buf in place. Views returned from it alias buf.
func NewDecoder(buf []byte, opts Options) *Decoder {
	r := source.NewSliceReader(buf)
	d := NewSourceDecoder(r, opts)
	d.slice = r
	return d
}

// NewStreamDecoder decodes r through a window of opts.BufferSize bytes.
func NewStreamDecoder(r io.Reader, opts Options) (*Decoder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if !opts.Compressed {
		return NewSourceDecoder(source.NewStreamReader(r, opts.bufferSize()), opts), nil
	}
	sr, err := source.NewZstdStreamReader(r, opts.bufferSize())
	if err != nil {
		return nil, err
	}
	d := NewSourceDecoder(sr, opts)
	d.closer = sr
	return d, nil
}

// NewSourceDecoder decodes any Source.
func NewSourceDecoder(src source.Source, opts Options) *Decoder {
	return &Decoder{src: src, p: match.NewProvider(src), logger: opts.Logger}
}

// Reset points a decoder made by NewDecoder at buf.
func (d *Decoder) Reset(buf []byte) {
	if d.slice == nil {
		panic("morsel: Reset on a decoder that does not read a slice")
	}
	d.slice.Reset(buf)
}

// Pos returns the absolute cursor position.
func (d *Decoder) Pos() int { return d.p.Pos() }

// Remaining returns the unread bytes of a decoder made by NewDecoder, and -1
// for decoders whose input length is unknown.
func (d *Decoder) Remaining() int {
	if d.slice == nil {
		return -1
	}
	return d.slice.Remaining()
}

// Source returns the source the decoder reads.
func (d *Decoder) Source() source.Source { return d.src }

// Close releases a decompressor set up by NewStreamDecoder.
func (d *Decoder) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

// Skip drops one match of op.
func (d *Decoder) Skip(op match.Runner) error {
	at := d.p.Pos()
	out, _, err := match.Run(d.p, op, match.DispDrop)
	if err == nil && out == match.Fail {
		err = ErrFailedOperation
	}
	if err != nil {
		return d.fail(op, at, err)
	}
	return nil
}

func (d *Decoder) fail(op any, at int, err error) error {
	name := "operator"
	if n, ok := op.(interface{ Name() string }); ok {
		name = n.Name()
	}
	d.errorf("%s failed at offset %d: %s", name, at, err)
	return &DecodeError{Op: name, Offset: at, Err: err}
}

func (d *Decoder) errorf(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Printf(msg, args...)
	}
}

// AllocatePreference says whether Take may return a view of the input.
type AllocatePreference uint8

const (
	// PreferView returns a view when the match allows one.
	PreferView AllocatePreference = iota
	// PreferOwned always returns owned memory.
	PreferOwned
)

func (a AllocatePreference) disposition() match.Disposition {
	if a == PreferOwned {
		return match.DispClone
	}
	return match.DispTake
}

// Take consumes one match of op and returns its value.
func Take[T, R, O any](d *Decoder, op *match.Operator[T, R, O], pref AllocatePreference) (Value[O], error) {
	at := d.p.Pos()
	res, err := match.Evaluate[O](d.p, op, pref.disposition())
	if err == nil && res.Outcome != match.OK {
		err = ErrFailedOperation
	}
	if err != nil {
		return Value[O]{}, d.fail(op, at, err)
	}
	return Value[O]{st: res.State}, nil
}

// Peek evaluates op at the cursor without moving it.
func Peek[T, R, O any](d *Decoder, op *match.Operator[T, R, O]) (*Peeked[O], error) {
	at := d.p.Pos()
	res, err := match.Evaluate[O](d.p, op, match.DispView)
	if err == nil && res.Outcome != match.OK {
		err = ErrFailedOperation
	}
	if err != nil {
		return nil, d.fail(op, at, err)
	}
	return &Peeked[O]{d: d, at: at, st: res.State}, nil
}
