package match

import (
	"sync"
	"unsafe"
)

const minScratch = 64

var bytePool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, minScratch)
		return &b
	},
}

// scratch owns the items of a sequence that cannot stay a view. Byte
// scratch comes from a pool and goes back to it on release.
type scratch[T any] struct {
	items  []T
	pooled *[]byte
	ready  bool
}

func (s *scratch[T]) init(h SizeHint, byteItems bool) {
	s.ready = true
	switch {
	case h.kind == hintExact:
		s.items = make([]T, 0, h.n)
	case byteItems:
		bp := bytePool.Get().(*[]byte)
		if cap(*bp) < h.n {
			*bp = make([]byte, 0, h.n)
		}
		s.pooled = bp
		s.items = asItems[T]((*bp)[:0])
	case h.kind == hintBound:
		s.items = make([]T, 0, h.n)
	default:
		s.items = make([]T, 0, minScratch/8)
	}
}

func (s *scratch[T]) add(h SizeHint, byteItems bool, v T) {
	if !s.ready {
		s.init(h, byteItems)
	}
	s.items = append(s.items, v)
}

// fill appends raw source bytes. T must be byte.
func (s *scratch[T]) fill(h SizeHint, b []byte) {
	if !s.ready {
		s.init(h, true)
	}
	s.items = append(s.items, asItems[T](b)...)
}

// put returns pooled memory. The items must not be used afterwards.
func (s *scratch[T]) put() {
	if s.pooled == nil {
		return
	}
	b := asBytes(s.items)
	// keep a buffer that grew past its pooled capacity
	if cap(b) > cap(*s.pooled) {
		*s.pooled = b
	}
	*s.pooled = (*s.pooled)[:0]
	bytePool.Put(s.pooled)
	s.pooled = nil
	s.items = nil
}

// asItems reinterprets bytes as items. T must be byte.
func asItems[T any](b []byte) []T {
	if len(b) == 0 && cap(b) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), cap(b))[:len(b)]
}

// asBytes reinterprets items as bytes. T must be byte.
func asBytes[T any](items []T) []byte {
	if cap(items) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(items))), cap(items))[:len(items)]
}

// byteItem converts a source byte to an item. T must be byte.
func byteItem[T any](b byte) T {
	var v T
	*(*byte)(unsafe.Pointer(&v)) = b
	return v
}

func itemByte[T any](v T) byte {
	return *(*byte)(unsafe.Pointer(&v))
}
