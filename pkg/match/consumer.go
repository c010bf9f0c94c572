package match

import "github.com/rawbytedev/morsel/internal/common"

// Evaluate runs e against p at the cursor with disposition d.
func Evaluate[O any](p *Provider, e Evaluator[O], d Disposition) (Result[O], error) {
	return e.evaluate(p, 0, ModeFor(p, d))
}

// Run runs r against p at the cursor with disposition d, releasing any
// value it produces. It returns the outcome and the bytes consumed.
func Run(p *Provider, r Runner, d Disposition) (Outcome, int, error) {
	return r.run(p, 0, ModeFor(p, d))
}

func (o *Operator[T, R, O]) run(p *Provider, off int, mode Mode) (Outcome, int, error) {
	res, err := o.evaluate(p, off, mode)
	if err != nil || res.Outcome == Fail {
		return Fail, 0, err
	}
	res.State.Release()
	return res.Outcome, res.State.Consumed, nil
}

// evaluate matches at off bytes past the cursor and assembles the result.
// Only the outermost evaluation may advance the cursor, so off is zero for
// every mode but DispView.
func (o *Operator[T, R, O]) evaluate(p *Provider, off int, mode Mode) (Result[O], error) {
	if off != 0 && mode.advances() {
		common.Panicf("%s: %s evaluation at offset %d", o.name, mode, off)
	}
	var mo matchOut[R, O]
	var err error
	if o.seq != nil {
		mo, err = o.matchMany(p, off, mode)
	} else {
		mo, err = o.matchOne(p, off, mode)
	}
	if err != nil || !mo.ok {
		return Result[O]{}, err
	}
	ms := mo.ms

	var st EvalState[O]
	switch {
	case o.res.kind == BehaviorNone:
		st = EvalState[O]{
			Value:    o.identity(ms.Value),
			Consumed: ms.Consumed,
			Owned:    ms.Owned || !o.outSlice,
			lease:    ms.lease,
		}
	case mo.resolved:
		st = o.settle(ms, mo.out)
	case o.res.kind == BehaviorPartial:
		// the run ended without a partial success
		ms.release()
		return Result[O]{}, nil
	default:
		out, ok := o.res.fn(ms.Value)
		switch {
		case ok:
			st = o.settle(ms, out)
		case o.res.fallback != nil:
			st = EvalState[O]{
				Value:    o.res.fallback(ms.Value),
				Consumed: ms.Consumed,
				Owned:    ms.Owned || !o.outSlice,
				lease:    ms.lease,
			}
		default:
			ms.release()
			return Result[O]{}, nil
		}
	}

	if mode.Disp == DispDrop {
		st.Release()
		p.Drop(st.Consumed - ms.drained)
		return Result[O]{Outcome: Discard, State: EvalState[O]{Consumed: st.Consumed}}, nil
	}
	if mode.Disp == DispClone && o.outSlice && !st.Owned {
		st.Value = cloneSlice(st.Value)
		st.Owned = true
		st.lease = newLease(nil)
	}
	if mode.advances() {
		p.Drop(st.Consumed - ms.drained)
	}
	return Result[O]{Outcome: OK, State: st}, nil
}

// settle decides who owns a resolver output. When output and matched value
// are the same memory the matched ownership carries over; when they only
// partly overlap the output is copied before the matched memory goes away;
// otherwise the output is independent of the match and is a view.
func (o *Operator[T, R, O]) settle(ms MatchState[R], out O) EvalState[O] {
	st := EvalState[O]{Value: out, Consumed: ms.Consumed}
	switch {
	case !o.outSlice:
		ms.release()
		st.Owned = true
	case o.res.fresh:
		ms.release()
		st.Owned = true
		st.lease = newLease(nil)
	case !o.rawSlice:
		ms.release()
	default:
		switch classify(spanOf(ms.Value), spanOf(out)) {
		case overlapFull:
			st.Owned = ms.Owned
			st.lease = ms.lease
		case overlapPartial:
			st.Value = cloneSlice(out)
			st.Owned = true
			st.lease = newLease(nil)
			ms.release()
		default:
			ms.release()
		}
	}
	return st
}

type matchOut[R, O any] struct {
	ms MatchState[R]
	ok bool
	// out is set when a partial resolver succeeded inside the run
	out      O
	resolved bool
}

// pad aligns the match start. It returns the offset the match starts at,
// the padding, and how much of it was dropped from the source.
func (o *Operator[T, R, O]) pad(p *Provider, off int, mode Mode) (int, int, int, error) {
	if o.align <= 1 {
		return off, 0, 0, nil
	}
	at := p.Pos() + off
	n := common.AlignUp(at, o.align) - at
	if n == 0 {
		return off, 0, 0, nil
	}
	if err := p.Reserve(off + n); err != nil {
		return 0, 0, 0, err
	}
	if mode.drains() {
		p.Drop(n)
		return off, n, n, nil
	}
	return off + n, n, 0, nil
}

func (o *Operator[T, R, O]) matchOne(p *Provider, off int, mode Mode) (matchOut[R, O], error) {
	var mo matchOut[R, O]
	at, pad, drained, err := o.pad(p, off, mode)
	if err != nil {
		return mo, err
	}
	st, err := o.next(p, at)
	if err != nil {
		return mo, err
	}
	switch st.kind {
	case stepStop, stepReject:
		return mo, nil
	case stepItem:
		if !o.single(st.item) {
			st.lease.release()
			return mo, nil
		}
	}
	mo.ok = true
	mo.ms = MatchState[R]{
		Value:    o.wrapOne(st.item),
		Consumed: pad + st.width,
		Owned:    st.owned,
		drained:  drained,
	}
	if st.owned {
		mo.ms.lease = st.lease
		if mo.ms.lease == nil {
			mo.ms.lease = newLease(nil)
		}
	}
	return mo, nil
}

func (o *Operator[T, R, O]) matchMany(p *Provider, off int, mode Mode) (matchOut[R, O], error) {
	var mo matchOut[R, O]
	at, pad, drained, err := o.pad(p, off, mode)
	if err != nil {
		return mo, err
	}
	drain := mode.drains()
	keep := o.res.kind != BehaviorNone || mode.Disp != DispDrop
	sq := newSequencer[T](at, o.hint, o.byteItems, drain, keep)
	partial := o.res.kind == BehaviorPartial

loop:
	for i := 0; ; i++ {
		pos := at + sq.width
		if drain {
			pos = at
		}
		st, err := o.next(p, pos)
		if err != nil {
			sq.release()
			return mo, err
		}
		var v Verdict
		switch st.kind {
		case stepReject:
			v = Invalid
		case stepStop:
			v = StopExclude
		case stepAccept:
			v = Continue
		default:
			v = o.seq(i, st.item)
		}
		switch v {
		case Invalid:
			st.lease.release()
			sq.release()
			return mo, nil
		case StopExclude:
			st.lease.release()
			break loop
		}
		if !sq.push(p, st) {
			sq.release()
			return mo, nil
		}
		if drain {
			p.Drop(st.width)
			drained += st.width
		}
		if partial && i >= o.res.start {
			if out, ok := o.res.fn(o.wrapSeq(sq.items(p))); ok {
				mo.out = out
				mo.resolved = true
				break loop
			}
		}
		if v == StopInclude {
			break loop
		}
	}
	if sq.count == 0 {
		sq.release()
		return mo, nil
	}
	mo.ok = true
	mo.ms = MatchState[R]{
		Value:    o.wrapSeq(sq.items(p)),
		Consumed: pad + sq.width,
		Owned:    sq.owned(),
		drained:  drained,
		lease:    sq.lease(),
	}
	return mo, nil
}

// next produces the item at pos through the filter pipeline.
func (o *Operator[T, R, O]) next(p *Provider, pos int) (step[T], error) {
	f := &o.filter
	switch {
	case f.value != nil:
		res, err := f.value.evaluate(p, pos, Mode{Stream: !p.Direct(), Disp: DispView})
		if err != nil {
			return step[T]{}, err
		}
		if res.Outcome == OK {
			if res.State.Consumed == 0 {
				common.Panicf("%s: filter consumed nothing", o.name)
			}
			st := step[T]{item: res.State.Value, width: res.State.Consumed, owned: res.State.Owned}
			if f.behavior == FilterOverride {
				st.kind = stepAccept
			}
			switch {
			case !o.itemSlice:
				res.State.Release()
				st.owned = false
			case st.owned:
				st.lease = res.State.lease
			case !p.Direct():
				// a window view goes stale once the stream refills
				st.item = cloneSlice(st.item)
				st.owned = true
			}
			if o.byteItems {
				st.rewritten = st.width != 1 || itemByte(st.item) != p.Peek(pos)
			}
			return st, nil
		}
		if f.behavior == FilterFail {
			return step[T]{kind: stepReject}, nil
		}
	case f.gate != nil:
		outcome, _, err := f.gate.run(p, pos, Mode{Stream: !p.Direct(), Disp: DispView})
		if err != nil {
			return step[T]{}, err
		}
		passed := outcome == OK
		switch f.behavior {
		case FilterValidate:
			if !passed {
				return step[T]{kind: stepStop}, nil
			}
		case FilterUnless:
			if passed {
				return step[T]{kind: stepStop}, nil
			}
		case FilterSkip:
			if passed {
				return step[T]{kind: stepReject}, nil
			}
		}
	}
	if err := p.Reserve(pos + 1); err != nil {
		return step[T]{}, err
	}
	return step[T]{item: byteItem[T](p.Peek(pos)), width: 1}, nil
}
