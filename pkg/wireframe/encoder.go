package wireframe

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/klauspost/compress/zstd"
)

// Encoder builds frames. The returned slices are fresh for every call.
type Encoder struct {
	buf  bytes.Buffer
	zenc *zstd.Encoder
}

func NewEncoder() *Encoder { return &Encoder{} }

// begin writes the preamble with a length placeholder.
func (e *Encoder) begin(t byte) {
	e.buf.Reset()
	e.buf.Write(Magic[:])
	e.buf.WriteByte(t)
	binary.Write(&e.buf, binary.LittleEndian, uint32(0))
}

// finish fills in the length and appends the CRC.
func (e *Encoder) finish() ([]byte, error) {
	total := e.buf.Len() + crcLen
	if uint64(total) > math.MaxUint32 {
		return nil, ErrTooLarge
	}
	out := make([]byte, e.buf.Len(), total)
	copy(out, e.buf.Bytes())
	binary.LittleEndian.PutUint32(out[3:], uint32(total))
	crc := crc32.ChecksumIEEE(out[len(Magic):])
	return binary.LittleEndian.AppendUint32(out, crc), nil
}

// Data encodes a data frame. With FlagHasOffsetTable the offsets are
// written ahead of the payload; with FlagCompressed the payload is zstd
// compressed.
func (e *Encoder) Data(payload []byte, flags byte, offsets []uint32) ([]byte, error) {
	if flags&FlagHasOffsetTable == 0 && len(offsets) > 0 {
		return nil, fmt.Errorf("wireframe: %d offsets without FlagHasOffsetTable", len(offsets))
	}
	if len(offsets) > math.MaxUint16 {
		return nil, fmt.Errorf("wireframe: %d offsets: %w", len(offsets), ErrTooLarge)
	}
	if flags&FlagCompressed != 0 {
		if e.zenc == nil {
			zenc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
			if err != nil {
				return nil, fmt.Errorf("wireframe: zstd encoder: %w", err)
			}
			e.zenc = zenc
		}
		payload = e.zenc.EncodeAll(payload, nil)
	}
	e.begin(TypeData)
	e.buf.WriteByte(flags)
	if flags&FlagHasOffsetTable != 0 {
		binary.Write(&e.buf, binary.LittleEndian, uint16(len(offsets)))
		for _, off := range offsets {
			binary.Write(&e.buf, binary.LittleEndian, off)
		}
	}
	e.buf.Write(payload)
	return e.finish()
}

// Error encodes an error frame.
func (e *Encoder) Error(code byte, data []byte) ([]byte, error) {
	if len(data) > math.MaxUint16 {
		return nil, ErrTooLarge
	}
	e.begin(TypeError)
	e.buf.WriteByte(code)
	binary.Write(&e.buf, binary.LittleEndian, uint16(len(data)))
	e.buf.Write(data)
	return e.finish()
}

// Handshake encodes a handshake frame.
func (e *Encoder) Handshake(h Handshake) ([]byte, error) {
	if len(h.AlgCodes) > math.MaxUint16 {
		return nil, ErrTooLarge
	}
	e.begin(TypeHandshake)
	binary.Write(&e.buf, binary.LittleEndian, h.VersionMask)
	binary.Write(&e.buf, binary.LittleEndian, h.MTU)
	binary.Write(&e.buf, binary.LittleEndian, h.TimeoutMS)
	binary.Write(&e.buf, binary.LittleEndian, uint16(len(h.AlgCodes)))
	e.buf.Write(h.AlgCodes)
	return e.finish()
}

// Close releases the compressor, if one was started.
func (e *Encoder) Close() error {
	if e.zenc == nil {
		return nil
	}
	return e.zenc.Close()
}
