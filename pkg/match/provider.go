package match

import "github.com/rawbytedev/morsel/pkg/source"

// Provider gives the engine one way to read any Source. Offsets are
// relative to the source cursor.
type Provider struct {
	src source.Source
	// slice short-circuits the interface for the common in-memory case
	slice  *source.SliceReader
	direct bool
}

// NewProvider wraps src.
func NewProvider(src source.Source) *Provider {
	p := &Provider{src: src, direct: src.Direct()}
	p.slice, _ = src.(*source.SliceReader)
	return p
}

// Source returns the wrapped source.
func (p *Provider) Source() source.Source { return p.src }

// Direct reports whether slices handed out by PeekSlice stay valid for the
// lifetime of the input.
func (p *Provider) Direct() bool { return p.direct }

func (p *Provider) Reserve(n int) error {
	if p.slice != nil {
		return p.slice.Reserve(n)
	}
	return p.src.Reserve(n)
}

func (p *Provider) Peek(i int) byte {
	if p.slice != nil {
		return p.slice.Peek(i)
	}
	return p.src.Peek(i)
}

func (p *Provider) PeekSlice(i, n int) []byte {
	if p.slice != nil {
		return p.slice.PeekSlice(i, n)
	}
	return p.src.PeekSlice(i, n)
}

func (p *Provider) Drop(n int) {
	if n == 0 {
		return
	}
	if p.slice != nil {
		p.slice.Drop(n)
		return
	}
	p.src.Drop(n)
}

// Pos returns the absolute cursor position.
func (p *Provider) Pos() int {
	if p.slice != nil {
		return p.slice.Pos()
	}
	return p.src.Pos()
}

// Disposition is what an evaluation does with a successful match.
type Disposition uint8

const (
	// DispView leaves the cursor in place.
	DispView Disposition = iota
	// DispTake advances past the match and returns it, as a view when possible.
	DispTake
	// DispClone advances past the match and returns owned memory.
	DispClone
	// DispDrop advances past the match and discards it.
	DispDrop
)

func (d Disposition) String() string {
	switch d {
	case DispView:
		return "view"
	case DispTake:
		return "take"
	case DispClone:
		return "clone"
	case DispDrop:
		return "drop"
	default:
		return "unknown"
	}
}

// Mode is the consume mode of one evaluation: the source shape crossed with
// the disposition.
type Mode struct {
	Stream bool
	Disp   Disposition
}

// ModeFor returns the mode for evaluating d against p.
func ModeFor(p *Provider, d Disposition) Mode {
	return Mode{Stream: !p.direct, Disp: d}
}

// drains reports whether items must leave the source as they are read.
func (m Mode) drains() bool { return m.Stream && m.Disp != DispView }

func (m Mode) advances() bool { return m.Disp != DispView }

func (m Mode) String() string {
	if m.Stream {
		return "stream_" + m.Disp.String()
	}
	return "direct_" + m.Disp.String()
}
