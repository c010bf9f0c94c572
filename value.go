package morsel

import (
	"github.com/rawbytedev/morsel/internal/common"
	"github.com/rawbytedev/morsel/pkg/match"
)

// Value is a decoded value. A view aliases the input and must not outlive
// it; owned memory belongs to the caller until Release.
type Value[O any] struct {
	st match.EvalState[O]
}

func (v Value[O]) Get() O { return v.st.Value }

// Owned reports whether the value is independent of the input. Scalars are
// always owned.
func (v Value[O]) Owned() bool { return v.st.Owned }

// Consumed returns the number of input bytes the value was decoded from.
func (v Value[O]) Consumed() int { return v.st.Consumed }

// Release hands owned memory back. It does nothing for views and panics
// when called twice on owned memory.
func (v Value[O]) Release() { v.st.Release() }

// Peeked is a match found by Peek that has not moved the cursor yet.
type Peeked[O any] struct {
	d  *Decoder
	at int
	st match.EvalState[O]

	committed bool
	handed    bool
	freed     bool
}

// View returns the value without side effects.
func (h *Peeked[O]) View() O {
	common.Assertf(!h.freed, "view of a freed peek")
	return h.st.Value
}

// Consumed returns the number of bytes Commit advances by.
func (h *Peeked[O]) Consumed() int { return h.st.Consumed }

// Owned reports whether the peeked value owns its memory.
func (h *Peeked[O]) Owned() bool { return h.st.Owned }

// Commit moves the cursor past the match. The value stays with the handle
// and is released by Free.
func (h *Peeked[O]) Commit() {
	common.Assertf(!h.committed, "peek committed twice")
	common.Assertf(h.d.p.Pos() == h.at, "cursor moved from %d to %d since the peek", h.at, h.d.p.Pos())
	h.d.p.Drop(h.st.Consumed)
	h.committed = true
}

// Consume commits the match if needed and hands the value to the caller.
// A view of a stream window is copied first, the window does not survive
// the next read.
func (h *Peeked[O]) Consume() Value[O] {
	common.Assertf(!h.handed && !h.freed, "peek consumed after it was handed out or freed")
	st := h.st
	if !h.d.p.Direct() {
		st = st.Own()
	}
	if !h.committed {
		h.Commit()
	}
	h.handed = true
	return Value[O]{st: st}
}

// Free releases owned memory held by the handle without moving the cursor.
func (h *Peeked[O]) Free() {
	common.Assertf(!h.handed, "free of a peek whose value was handed out")
	common.Assertf(!h.freed, "peek freed twice")
	h.freed = true
	h.st.Release()
}
