package match

import (
	"fmt"
	"reflect"

	"github.com/rawbytedev/morsel/internal/common"
)

// Runner is any operator, seen without its output type. Skipping and
// gating filters only need to know whether an operator matched.
type Runner interface {
	run(p *Provider, off int, mode Mode) (Outcome, int, error)
}

// Evaluator is an operator producing values of type O.
type Evaluator[O any] interface {
	Runner
	evaluate(p *Provider, off int, mode Mode) (Result[O], error)
}

// Operator matches items of type T, producing a raw value R (T for One, []T
// for Many) that its resolver turns into O.
type Operator[T, R, O any] struct {
	name   string
	single func(T) bool
	seq    func(int, T) Verdict
	filter filterSpec[T]
	hint   SizeHint
	align  int
	res    resolver[T, R, O]

	// identity passes the raw value through when there is no resolver
	identity func(R) O
	wrapOne  func(T) R
	wrapSeq  func([]T) R

	byteItems bool
	itemSlice bool
	rawSlice  bool
	outSlice  bool
}

type filterSpec[T any] struct {
	value    Evaluator[T]
	gate     Runner
	behavior FilterBehavior
}

func (f *filterSpec[T]) set() bool { return f.value != nil || f.gate != nil }

type resolver[T, R, O any] struct {
	kind     ResolveBehavior
	fn       func(R) (O, bool)
	fallback func(R) O
	// start is the first item index a partial resolver is tried at
	start int
	// fresh outputs never alias the matched value
	fresh bool
}

// Option configures an operator under construction.
type Option interface {
	apply(*settings)
}

type settings struct {
	filter   Runner
	behavior FilterBehavior
	filters  int
	hint     SizeHint
	hinted   bool
	align    int
}

type optionFunc func(*settings)

func (f optionFunc) apply(s *settings) { f(s) }

// WithFilter runs inner ahead of the matcher at every item position.
// For FilterFail, FilterFallback and FilterOverride the output of inner
// must have the matcher's item type.
func WithFilter(inner Runner, b FilterBehavior) Option {
	return optionFunc(func(s *settings) {
		s.filter = inner
		s.behavior = b
		s.filters++
	})
}

// WithHint sets the scratch size hint of a sequence operator.
func WithHint(h SizeHint) Option {
	return optionFunc(func(s *settings) {
		s.hint = h
		s.hinted = true
	})
}

// WithAlign pads the cursor up to a multiple of n before matching.
func WithAlign(n int) Option {
	return optionFunc(func(s *settings) { s.align = n })
}

// One builds an operator matching a single item accepted by pred.
func One[T any](pred func(T) bool, opts ...Option) *Operator[T, T, T] {
	op := build[T, T, T]("one", opts, false)
	op.single = pred
	op.wrapOne = func(v T) T { return v }
	op.identity = op.wrapOne
	return op
}

// Many builds an operator matching a run of items, judged one at a time by
// step with the item's index in the run.
func Many[T any](step func(int, T) Verdict, opts ...Option) *Operator[T, []T, []T] {
	op := build[T, []T, []T]("many", opts, true)
	op.seq = step
	op.wrapSeq = func(v []T) []T { return v }
	op.identity = op.wrapSeq
	return op
}

func build[T, R, O any](name string, opts []Option, sequence bool) *Operator[T, R, O] {
	var s settings
	s.align = 1
	for _, o := range opts {
		o.apply(&s)
	}
	op := &Operator[T, R, O]{
		name:      name,
		hint:      s.hint,
		align:     s.align,
		itemSlice: isSlice[T](),
		rawSlice:  isSlice[R](),
		outSlice:  isSlice[O](),
	}
	var zero T
	_, op.byteItems = any(zero).(byte)

	if s.filters > 1 {
		contract(name, "an operator takes one filter, nest operators to combine them")
	}
	if !common.IsPow2(s.align) {
		contract(name, fmt.Sprintf("alignment %d is not a power of two", s.align))
	}
	if s.hinted {
		if !sequence {
			contract(name, "size hints only apply to sequence matchers")
		}
		if s.hint.kind != hintDynamic && s.hint.n <= 0 {
			contract(name, fmt.Sprintf("size hint %s must be positive", s.hint))
		}
	}
	if s.filter != nil {
		op.filter.behavior = s.behavior
		if s.behavior.transforms() {
			ev, ok := s.filter.(Evaluator[T])
			if !ok {
				contract(name, fmt.Sprintf("filter output does not match item type %s", reflect.TypeFor[T]()))
			}
			op.filter.value = ev
		} else {
			op.filter.gate = s.filter
		}
	}
	// every behavior except FilterFail can hand the raw byte to the matcher
	if !op.byteItems && !(op.filter.value != nil && op.filter.behavior == FilterFail) {
		contract(name, fmt.Sprintf("items of type %s need a filter with FilterFail to produce them", reflect.TypeFor[T]()))
	}
	return op
}

func contract(op, reason string) {
	panic(&ContractError{Op: op, Reason: reason})
}

// Named sets the name used in contract errors and logs.
func (o *Operator[T, R, O]) Named(name string) *Operator[T, R, O] {
	o.name = name
	return o
}

func (o *Operator[T, R, O]) Name() string { return o.name }

func (o *Operator[T, R, O]) Hint() SizeHint { return o.hint }

func (o *Operator[T, R, O]) Align() int { return o.align }

// Sequence reports whether the operator was built with Many.
func (o *Operator[T, R, O]) Sequence() bool { return o.seq != nil }

func (o *Operator[T, R, O]) ResolveBehavior() ResolveBehavior { return o.res.kind }

// FilterBehavior returns the filter behavior and whether a filter is set.
func (o *Operator[T, R, O]) FilterBehavior() (FilterBehavior, bool) {
	return o.filter.behavior, o.filter.set()
}

// withResolver copies the matching half of o under a new output type.
func withResolver[T, R, O, P any](o *Operator[T, R, O], res resolver[T, R, P]) *Operator[T, R, P] {
	if o.res.kind != BehaviorNone {
		contract(o.name, fmt.Sprintf("operator already has a %s resolver", o.res.kind))
	}
	return &Operator[T, R, P]{
		name:      o.name,
		single:    o.single,
		seq:       o.seq,
		filter:    o.filter,
		hint:      o.hint,
		align:     o.align,
		res:       res,
		wrapOne:   o.wrapOne,
		wrapSeq:   o.wrapSeq,
		byteItems: o.byteItems,
		itemSlice: o.itemSlice,
		rawSlice:  o.rawSlice,
		outSlice:  isSlice[P](),
	}
}

// Resolve attaches fn to the matched value. When fn declines the operator
// fails.
func Resolve[T, R, P any](o *Operator[T, R, R], fn func(R) (P, bool)) *Operator[T, R, P] {
	return withResolver(o, resolver[T, R, P]{kind: BehaviorFail, fn: fn})
}

// ResolveSafe attaches fn to the matched value. When fn declines the
// matched value is returned unchanged.
func ResolveSafe[T, R any](o *Operator[T, R, R], fn func(R) (R, bool)) *Operator[T, R, R] {
	return withResolver(o, resolver[T, R, R]{
		kind:     BehaviorSafe,
		fn:       fn,
		fallback: func(v R) R { return v },
	})
}

// ResolvePartial runs fn on the run after every appended item. The first
// success ends the run with fn's output; a run that ends without one fails.
func ResolvePartial[T, P any](o *Operator[T, []T, []T], fn func([]T) (P, bool)) *Operator[T, []T, P] {
	return ResolvePartialFrom(o, 0, fn)
}

// ResolvePartialFrom is ResolvePartial that only tries fn once the run
// holds more than start items.
func ResolvePartialFrom[T, P any](o *Operator[T, []T, []T], start int, fn func([]T) (P, bool)) *Operator[T, []T, P] {
	if start < 0 {
		contract(o.name, fmt.Sprintf("partial resolver start %d is negative", start))
	}
	return withResolver(o, resolver[T, []T, P]{kind: BehaviorPartial, fn: fn, start: start})
}

// ResolveEach resolves every item of the run. When fn declines any item the
// operator fails.
func ResolveEach[T, P any](o *Operator[T, []T, []T], fn func(T) (P, bool)) *Operator[T, []T, []P] {
	return withResolver(o, resolver[T, []T, []P]{
		kind:  BehaviorEachFail,
		fresh: true,
		fn: func(items []T) ([]P, bool) {
			out := make([]P, len(items))
			for i, it := range items {
				v, ok := fn(it)
				if !ok {
					return nil, false
				}
				out[i] = v
			}
			return out, true
		},
	})
}

// ResolveEachSafe resolves every item of the run, keeping the items fn
// declines.
func ResolveEachSafe[T any](o *Operator[T, []T, []T], fn func(T) (T, bool)) *Operator[T, []T, []T] {
	return withResolver(o, resolver[T, []T, []T]{
		kind:  BehaviorEachSafe,
		fresh: true,
		fn: func(items []T) ([]T, bool) {
			out := make([]T, len(items))
			for i, it := range items {
				if v, ok := fn(it); ok {
					out[i] = v
				} else {
					out[i] = it
				}
			}
			return out, true
		},
	})
}
