package wireframe

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"log"

	"github.com/rawbytedev/morsel"
	"github.com/rawbytedev/morsel/pkg/match"
	"github.com/rawbytedev/morsel/pkg/ops"
)

// Reader decodes frames from a morsel Decoder.
type Reader struct {
	d        *morsel.Decoder
	logger   *log.Logger
	maxFrame int
	inflate  *ops.Inflater

	magic *match.Operator[byte, []byte, []byte]
	typ   *match.Operator[byte, byte, byte]
	u16   *match.Operator[byte, []byte, uint16]
	u32   *match.Operator[byte, []byte, uint32]
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithLogger logs rejected frames to l.
func WithLogger(l *log.Logger) ReaderOption {
	return func(r *Reader) { r.logger = l }
}

// WithMaxFrame bounds the total length of a frame, and the decompressed
// size of a compressed payload.
func WithMaxFrame(n int) ReaderOption {
	return func(r *Reader) { r.maxFrame = n }
}

// NewReader reads frames from d.
func NewReader(d *morsel.Decoder, opts ...ReaderOption) *Reader {
	r := &Reader{
		d:        d,
		maxFrame: DefaultMaxFrame,
		magic:    ops.Literal(string(Magic[:])),
		typ:      ops.Any(),
		u16:      ops.Uint[uint16](binary.LittleEndian),
		u32:      ops.Uint[uint32](binary.LittleEndian),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Close releases the decompressor, if one was needed.
func (r *Reader) Close() {
	if r.inflate != nil {
		r.inflate.Close()
	}
}

func (r *Reader) errorf(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(msg, args...)
	}
}

// Next decodes the next frame. It returns io.EOF when the input ends
// cleanly between frames. A frame that fails part way leaves the decoder
// wherever the failure happened.
func (r *Reader) Next() (*Frame, error) {
	at := r.d.Pos()
	if err := r.d.Skip(r.magic); err != nil {
		if errors.Is(err, morsel.ErrEndOfStream) && r.d.Pos() == at {
			return nil, io.EOF
		}
		if errors.Is(err, morsel.ErrFailedOperation) {
			return nil, ErrBadMagic
		}
		return nil, err
	}
	t, err := morsel.Take(r.d, r.typ, morsel.PreferView)
	if err != nil {
		return nil, err
	}
	length, err := morsel.Take(r.d, r.u32, morsel.PreferView)
	if err != nil {
		return nil, err
	}
	typ, total := t.Get(), int(length.Get())
	need, ok := minBody(typ)
	if !ok {
		return nil, fmt.Errorf("%w %#x at offset %d", ErrUnknownType, typ, at)
	}
	if total > r.maxFrame {
		return nil, fmt.Errorf("%s frame of %d bytes: %w", typeName(typ), total, ErrTooLarge)
	}
	n := total - headerLen - crcLen
	if n < need {
		return nil, fmt.Errorf("%w: %s frame of %d bytes", ErrLength, typeName(typ), total)
	}

	body, err := morsel.Take(r.d, ops.Fixed(n), morsel.PreferView)
	if err != nil {
		return nil, err
	}
	sum, err := morsel.Take(r.d, r.u32, morsel.PreferView)
	if err != nil {
		return nil, err
	}
	var pre [1 + 4]byte
	pre[0] = typ
	binary.LittleEndian.PutUint32(pre[1:], uint32(total))
	got := crc32.Update(crc32.ChecksumIEEE(pre[:]), crc32.IEEETable, body.Get())
	if got != sum.Get() {
		r.errorf("wireframe: %s frame at offset %d: crc %08x, want %08x", typeName(typ), at, got, sum.Get())
		return nil, &ChecksumError{Offset: at, Expected: sum.Get(), Got: got}
	}

	f, err := r.parse(typ, body.Get())
	if err != nil {
		r.errorf("wireframe: %s frame at offset %d: %s", typeName(typ), at, err)
		return nil, err
	}
	return f, nil
}

// parse decodes a checked frame body. The body is read by its own decoder,
// fields alias the body.
func (r *Reader) parse(typ byte, body []byte) (*Frame, error) {
	bd := morsel.NewDecoder(body, morsel.Options{Logger: r.logger})
	f := &Frame{Type: typ}
	var err error
	switch typ {
	case TypeData:
		err = r.parseData(bd, f)
	case TypeError:
		err = r.parseError(bd, f)
	case TypeHandshake:
		err = r.parseHandshake(bd, f)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if bd.Pos() != len(body) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(body)-bd.Pos())
	}
	return f, nil
}

func (r *Reader) parseData(bd *morsel.Decoder, f *Frame) error {
	flags, err := morsel.Take(bd, r.typ, morsel.PreferView)
	if err != nil {
		return err
	}
	f.Flags = flags.Get()
	if f.Flags&FlagHasOffsetTable != 0 {
		cnt, err := morsel.Take(bd, r.u16, morsel.PreferView)
		if err != nil {
			return err
		}
		f.Offsets = make([]uint32, cnt.Get())
		for i := range f.Offsets {
			off, err := morsel.Take(bd, r.u32, morsel.PreferView)
			if err != nil {
				return err
			}
			f.Offsets[i] = off.Get()
		}
	}
	rest := bd.Remaining()
	if rest == 0 {
		return nil
	}
	payload := ops.Fixed(rest)
	if f.Flags&FlagCompressed != 0 {
		if r.inflate == nil {
			z, err := ops.NewInflater(r.maxFrame)
			if err != nil {
				return err
			}
			r.inflate = z
		}
		payload = r.inflate.Of(payload)
	}
	v, err := morsel.Take(bd, payload, morsel.PreferView)
	if err != nil {
		return err
	}
	f.Payload = v.Get()
	return nil
}

func (r *Reader) parseError(bd *morsel.Decoder, f *Frame) error {
	code, err := morsel.Take(bd, r.typ, morsel.PreferView)
	if err != nil {
		return err
	}
	f.Code = code.Get()
	n, err := morsel.Take(bd, r.u16, morsel.PreferView)
	if err != nil {
		return err
	}
	f.Payload, err = r.fixed(bd, int(n.Get()))
	return err
}

func (r *Reader) parseHandshake(bd *morsel.Decoder, f *Frame) error {
	var h Handshake
	mask, err := morsel.Take(bd, r.u16, morsel.PreferView)
	if err != nil {
		return err
	}
	mtu, err := morsel.Take(bd, r.u16, morsel.PreferView)
	if err != nil {
		return err
	}
	timeout, err := morsel.Take(bd, r.u32, morsel.PreferView)
	if err != nil {
		return err
	}
	n, err := morsel.Take(bd, r.u16, morsel.PreferView)
	if err != nil {
		return err
	}
	h.VersionMask, h.MTU, h.TimeoutMS = mask.Get(), mtu.Get(), timeout.Get()
	if h.AlgCodes, err = r.fixed(bd, int(n.Get())); err != nil {
		return err
	}
	f.Handshake = &h
	return nil
}

func (r *Reader) fixed(bd *morsel.Decoder, n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	v, err := morsel.Take(bd, ops.Fixed(n), morsel.PreferView)
	if err != nil {
		return nil, err
	}
	return v.Get(), nil
}
