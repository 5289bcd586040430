package alloc

import (
	"sort"
	"unsafe"

	"github.com/joshuapare/pagealloc/internal/format"
)

// span is one region obtained from the page source.
type span struct {
	mem   []byte  // exact slice returned by Source.Acquire
	base  uintptr // address of mem[0]
	pages int
}

func newSpan(mem []byte) *span {
	return &span{
		mem:   mem,
		base:  uintptr(unsafe.Pointer(unsafe.SliceData(mem))),
		pages: len(mem) / format.PageSize,
	}
}

func (s *span) end() uintptr { return s.base + uintptr(len(s.mem)) }

// spanSet is the registry of every span the allocator owns, sorted by base
// address for O(log S) lookup.
type spanSet struct {
	spans []*span
	pages int
	bytes int
}

func (ss *spanSet) add(s *span) {
	i := sort.Search(len(ss.spans), func(i int) bool { return ss.spans[i].base > s.base })
	ss.spans = append(ss.spans, nil)
	copy(ss.spans[i+1:], ss.spans[i:])
	ss.spans[i] = s
	ss.pages += s.pages
	ss.bytes += len(s.mem)
}

// find returns the span containing addr.
func (ss *spanSet) find(addr uintptr) (*span, bool) {
	lo, hi := 0, len(ss.spans)-1
	for lo <= hi {
		mid := (lo + hi) >> 1
		s := ss.spans[mid]
		if addr < s.base {
			hi = mid - 1
		} else if addr >= s.end() {
			lo = mid + 1
		} else {
			return s, true
		}
	}
	return nil, false
}

// lookup resolves a header address to a block, checking that a full header
// fits inside the span.
func (ss *spanSet) lookup(addr uint64) (block, bool) {
	if addr == format.NilAddr {
		return block{}, false
	}
	s, ok := ss.find(uintptr(addr))
	if !ok {
		return block{}, false
	}
	off := int(uintptr(addr) - s.base)
	if off+format.HeaderSize > len(s.mem) {
		return block{}, false
	}
	return block{sp: s, off: off}, true
}

// at resolves a link stored in a header the allocator wrote itself.
func (ss *spanSet) at(addr uint64) block {
	b, ok := ss.lookup(addr)
	if !ok {
		panic("alloc: dangling block link")
	}
	return b
}

func (ss *spanSet) reset() {
	ss.spans = nil
	ss.pages = 0
	ss.bytes = 0
}
