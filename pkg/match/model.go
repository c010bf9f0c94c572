package match

import "fmt"

// Verdict is the answer of a sequence matcher for one item.
type Verdict uint8

const (
	// Continue keeps the item and asks for the next one.
	Continue Verdict = iota
	// StopInclude keeps the item and ends the run.
	StopInclude
	// StopExclude ends the run without the item. At position 0 the
	// operator fails, an empty run is never a match.
	StopExclude
	// Invalid aborts the run and fails the operator.
	Invalid
)

func (v Verdict) String() string {
	switch v {
	case Continue:
		return "continue"
	case StopInclude:
		return "stop_include"
	case StopExclude:
		return "stop_exclude"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("Verdict(%d)", uint8(v))
	}
}

type hintKind uint8

const (
	hintDynamic hintKind = iota
	hintBound
	hintExact
)

// SizeHint selects the scratch storage of a sequence operator.
type SizeHint struct {
	kind hintKind
	n    int
}

// Dynamic is for runs of unknown length, kept in a growable buffer.
func Dynamic() SizeHint { return SizeHint{} }

// Bound is for runs of at most n items, kept in a fixed-capacity buffer.
func Bound(n int) SizeHint { return SizeHint{kind: hintBound, n: n} }

// Exact is for runs of n items, kept in a buffer of exactly n.
func Exact(n int) SizeHint { return SizeHint{kind: hintExact, n: n} }

// Limit returns the maximum run length, or 0 for Dynamic.
func (h SizeHint) Limit() int {
	if h.kind == hintDynamic {
		return 0
	}
	return h.n
}

func (h SizeHint) String() string {
	switch h.kind {
	case hintBound:
		return fmt.Sprintf("bound(%d)", h.n)
	case hintExact:
		return fmt.Sprintf("exact(%d)", h.n)
	default:
		return "dynamic"
	}
}

// FilterBehavior says what a filter result means for the outer matcher.
type FilterBehavior uint8

const (
	// FilterFail feeds the filtered value to the matcher; a filter
	// failure fails the outer match.
	FilterFail FilterBehavior = iota
	// FilterFallback feeds the filtered value to the matcher, or the raw
	// byte when the filter fails.
	FilterFallback
	// FilterOverride accepts the filtered value without asking the matcher;
	// when the filter fails the raw byte goes to the matcher.
	FilterOverride
	// FilterValidate keeps matching while the filter succeeds.
	FilterValidate
	// FilterUnless keeps matching until the filter succeeds.
	FilterUnless
	// FilterSkip accepts an item only when the filter fails on it.
	FilterSkip
)

// FilterSafe is another name for FilterFallback.
const FilterSafe = FilterFallback

func (b FilterBehavior) String() string {
	switch b {
	case FilterFail:
		return "fail"
	case FilterFallback:
		return "fallback"
	case FilterOverride:
		return "override"
	case FilterValidate:
		return "validate"
	case FilterUnless:
		return "unless"
	case FilterSkip:
		return "skip"
	default:
		return fmt.Sprintf("FilterBehavior(%d)", uint8(b))
	}
}

// transforms reports whether the filter output is fed to the matcher, as
// opposed to only gating the raw byte.
func (b FilterBehavior) transforms() bool {
	return b == FilterFail || b == FilterFallback || b == FilterOverride
}

// ResolveBehavior says how a resolver applies to matched data.
type ResolveBehavior uint8

const (
	// BehaviorNone marks an operator without a resolver.
	BehaviorNone ResolveBehavior = iota
	// BehaviorFail fails the operator when the resolver declines.
	BehaviorFail
	// BehaviorSafe returns the matched value when the resolver declines.
	BehaviorSafe
	// BehaviorPartial runs the resolver after every appended item; the
	// first success ends the run.
	BehaviorPartial
	// BehaviorEachFail resolves every item, failing if any item declines.
	BehaviorEachFail
	// BehaviorEachSafe resolves every item, keeping items that decline.
	BehaviorEachSafe
)

func (b ResolveBehavior) String() string {
	switch b {
	case BehaviorNone:
		return "none"
	case BehaviorFail:
		return "fail"
	case BehaviorSafe:
		return "safe"
	case BehaviorPartial:
		return "partial"
	case BehaviorEachFail:
		return "each_fail"
	case BehaviorEachSafe:
		return "each_safe"
	default:
		return fmt.Sprintf("ResolveBehavior(%d)", uint8(b))
	}
}

// ContractError reports an operator whose parts do not fit together. It is
// raised by panicking while the operator is built.
type ContractError struct {
	Op     string
	Reason string
}

func (e *ContractError) Error() string {
	return "match: " + e.Op + ": " + e.Reason
}
