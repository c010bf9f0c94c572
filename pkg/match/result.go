package match

import (
	"reflect"

	"github.com/rawbytedev/morsel/internal/common"
	"golang.org/x/exp/slices"
)

// Outcome tags the result of an evaluation.
type Outcome uint8

const (
	// Fail means the operator declined the input.
	Fail Outcome = iota
	// Discard means the operator matched and the match was dropped.
	Discard
	// OK means the operator matched and State holds the value.
	OK
)

func (o Outcome) String() string {
	switch o {
	case Fail:
		return "fail"
	case Discard:
		return "discard"
	case OK:
		return "ok"
	default:
		return "unknown"
	}
}

// MatchState is the raw outcome of a matcher before any resolver runs.
type MatchState[R any] struct {
	Value    R
	Consumed int
	Owned    bool
	// drained counts the consumed bytes already dropped from the source
	drained int
	lease   *lease
}

func (m MatchState[R]) release() { m.lease.release() }

// EvalState is a successful evaluation. Value may alias the source unless
// Owned is set. Scalar values are copies and always report Owned.
type EvalState[O any] struct {
	Value    O
	Consumed int
	Owned    bool
	lease    *lease
}

// Release hands owned memory back. Calling it on a view does nothing;
// calling it twice on owned memory panics.
func (s EvalState[O]) Release() { s.lease.release() }

// Own returns s with its value in owned memory, copying it when s is a view.
// The view itself needs no release.
func (s EvalState[O]) Own() EvalState[O] {
	if s.Owned {
		return s
	}
	s.Value = cloneSlice(s.Value)
	s.Owned = true
	s.lease = newLease(nil)
	return s
}

// Result is what an evaluation hands back to its caller.
type Result[O any] struct {
	Outcome Outcome
	State   EvalState[O]
}

// lease tracks owned memory so it is released exactly once. Copies of a
// value share the lease.
type lease struct {
	released bool
	put      func()
}

func newLease(put func()) *lease { return &lease{put: put} }

func (l *lease) release() {
	if l == nil {
		return
	}
	common.Assertf(!l.released, "owned value released twice")
	l.released = true
	if l.put != nil {
		l.put()
		l.put = nil
	}
}

// span is the memory range of a slice value, recorded as a pointer and a
// byte length. Two spans are only comparable while both values are alive.
type span struct {
	ptr  uintptr
	size uintptr
}

func spanOf[V any](v V) span {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Len() == 0 {
		return span{}
	}
	return span{ptr: rv.Pointer(), size: uintptr(rv.Len()) * rv.Type().Elem().Size()}
}

type overlapKind uint8

const (
	overlapNone overlapKind = iota
	overlapPartial
	overlapFull
)

// classify compares the span of a resolver output against the span of the
// matched value it was computed from.
func classify(matched, out span) overlapKind {
	if matched.size == 0 || out.size == 0 {
		return overlapNone
	}
	if matched == out {
		return overlapFull
	}
	if out.ptr < matched.ptr+matched.size && matched.ptr < out.ptr+out.size {
		return overlapPartial
	}
	return overlapNone
}

// isSlice reports whether values of V are slices, the only shape for which
// ownership is tracked.
func isSlice[V any]() bool {
	return reflect.TypeFor[V]().Kind() == reflect.Slice
}

// cloneSlice copies a slice value into fresh memory. Non-slice values are
// returned unchanged.
func cloneSlice[V any](v V) V {
	if b, ok := any(v).([]byte); ok {
		return any(slices.Clone(b)).(V)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.IsNil() {
		return v
	}
	out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
	reflect.Copy(out, rv)
	return out.Interface().(V)
}
