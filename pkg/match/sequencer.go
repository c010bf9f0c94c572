package match

// step is one item produced by the filter pipeline.
type step[T any] struct {
	item  T
	width int
	kind  stepKind
	// rewritten is set when the item is not the raw byte at its position
	rewritten bool
	// owned is set when a slice-shaped item does not alias the source
	owned bool
	// lease holds the memory of an owned item produced by a filter
	lease *lease
}

type stepKind uint8

const (
	// stepItem goes to the matcher
	stepItem stepKind = iota
	// stepAccept is taken without asking the matcher
	stepAccept
	// stepStop ends the run before the item
	stepStop
	// stepReject fails the operator
	stepReject
)

// sequencer accumulates the items of a run. It starts as a view of the
// source bytes at off and switches to scratch the first time an item is
// rewritten by a filter, copying what it had so far out of the provider.
type sequencer[T any] struct {
	off   int
	width int
	count int
	limit int
	hint  SizeHint

	byteItems bool
	// viewing holds while the run is still the source bytes [off, off+width)
	viewing bool
	// keep is false when nothing needs the items, only their extent
	keep bool
	sc   scratch[T]
	// held are the leases of owned items referenced from sc
	held []*lease
}

func newSequencer[T any](off int, hint SizeHint, byteItems, drain, keep bool) sequencer[T] {
	return sequencer[T]{
		off:       off,
		hint:      hint,
		limit:     hint.Limit(),
		byteItems: byteItems,
		viewing:   byteItems && !drain && keep,
		keep:      keep,
	}
}

// push appends an item. It reports false when the size hint is exceeded.
func (s *sequencer[T]) push(p *Provider, st step[T]) bool {
	if s.limit > 0 && s.count == s.limit {
		st.lease.release()
		return false
	}
	switch {
	case !s.keep:
		st.lease.release()
	case s.viewing && !st.rewritten:
	default:
		if s.viewing {
			s.activate(p)
		}
		s.sc.add(s.hint, s.byteItems, st.item)
		if st.lease != nil {
			s.held = append(s.held, st.lease)
		}
	}
	s.count++
	s.width += st.width
	return true
}

// activate moves the run from a view to scratch.
func (s *sequencer[T]) activate(p *Provider) {
	s.viewing = false
	s.sc.init(s.hint, true)
	if s.width > 0 {
		s.sc.fill(s.hint, p.PeekSlice(s.off, s.width))
	}
}

// items returns the run so far. While viewing it aliases the provider.
func (s *sequencer[T]) items(p *Provider) []T {
	if s.viewing {
		return asItems[T](p.PeekSlice(s.off, s.width))
	}
	return s.sc.items
}

// owned reports whether items lives in scratch.
func (s *sequencer[T]) owned() bool { return s.keep && !s.viewing }

// lease hands the scratch over to the result.
func (s *sequencer[T]) lease() *lease {
	if !s.owned() {
		return nil
	}
	sc, held := s.sc, s.held
	return newLease(func() {
		sc.put()
		releaseAll(held)
	})
}

func (s *sequencer[T]) release() {
	s.sc.put()
	releaseAll(s.held)
	s.held = nil
}

func releaseAll(ls []*lease) {
	for _, l := range ls {
		l.release()
	}
}
