package ops

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/rawbytedev/morsel/pkg/match"
)

// minWindow is the decoder memory floor. The output limit is checked
// separately, so a small limit does not reject frames written with the
// encoder's default window.
const minWindow = 8 << 20

// Inflater decodes zstd frames matched by other operators. It is safe for
// concurrent use.
type Inflater struct {
	dec   *zstd.Decoder
	limit int
}

// NewInflater returns an Inflater rejecting frames that decode to more than
// limit bytes. limit must be positive.
func NewInflater(limit int) (*Inflater, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("ops: inflate limit %d is not positive", limit)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecoderMaxMemory(uint64(max(limit, minWindow))))
	if err != nil {
		return nil, fmt.Errorf("ops: zstd decoder: %w", err)
	}
	return &Inflater{dec: dec, limit: limit}, nil
}

// Inflate decodes one frame. Frames declaring a content size above the
// limit are rejected before decoding.
func (z *Inflater) Inflate(b []byte) ([]byte, bool) {
	var h zstd.Header
	if err := h.Decode(b); err != nil {
		return nil, false
	}
	if h.HasFCS && h.FrameContentSize > uint64(z.limit) {
		return nil, false
	}
	out, err := z.dec.DecodeAll(b, nil)
	if err != nil || len(out) > z.limit {
		return nil, false
	}
	return out, true
}

// Of resolves the bytes matched by op as one zstd frame. The result never
// aliases the input.
func (z *Inflater) Of(op *match.Operator[byte, []byte, []byte]) *match.Operator[byte, []byte, []byte] {
	return match.Resolve(op, z.Inflate)
}

// Close releases the decoder.
func (z *Inflater) Close() { z.dec.Close() }

// Decompress is Of on a fresh Inflater.
func Decompress(op *match.Operator[byte, []byte, []byte], limit int) (*match.Operator[byte, []byte, []byte], error) {
	z, err := NewInflater(limit)
	if err != nil {
		return nil, err
	}
	return z.Of(op), nil
}
