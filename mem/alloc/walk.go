package alloc

import (
	"fmt"

	"github.com/joshuapare/pagealloc/internal/format"
)

// BlockInfo describes one block as seen by Walk and FreeBlocks.
type BlockInfo struct {
	Ref    Ref     // payload address
	Addr   uintptr // header address
	Span   int     // index of the owning span in address order
	Offset int     // header offset within the span
	Size   int     // extent including the header
	Free   bool
}

// Payload is the usable size of the block.
func (bi BlockInfo) Payload() int { return bi.Size - HeaderSize }

// Walk visits every block of every span in address order, following the
// adjacency chain, until fn returns false.
func (a *Allocator) Walk(fn func(BlockInfo) bool) {
	for i, s := range a.spans.spans {
		b := block{sp: s, off: 0}
		for {
			if !fn(b.info(i)) {
				return
			}
			next := b.adjNext()
			if next == format.NilAddr {
				break
			}
			b = a.spans.at(next)
		}
	}
}

// FreeBlocks returns the free list in list order (most recently freed first).
func (a *Allocator) FreeBlocks() []BlockInfo {
	out := make([]BlockInfo, 0, a.free.count)
	a.free.each(func(b block) bool {
		out = append(out, b.info(a.spanIndex(b.sp)))
		return true
	})
	return out
}

func (a *Allocator) spanIndex(s *span) int {
	for i, sp := range a.spans.spans {
		if sp == s {
			return i
		}
	}
	return -1
}

// CheckInvariants verifies the allocator metadata end to end:
//
//   - blocks tile every span exactly (no gaps, no overlap)
//   - adjacency links match the physical layout in both directions
//   - no two physically adjacent blocks are both free
//   - every free block is on the free list exactly once and nothing else is
//   - free-list back-links and the cached counters agree
//
// It walks spans by header sizes, independently of the adjacency links, so a
// broken link is reported rather than followed.
func (a *Allocator) CheckInvariants() error {
	freeSeen := make(map[uint64]bool)
	freeBytes, inUse, allocated := 0, 0, 0

	for i, s := range a.spans.spans {
		if i > 0 && a.spans.spans[i-1].end() > s.base {
			return fmt.Errorf("%w: span %d overlaps its predecessor", ErrCorrupt, i)
		}
		off := 0
		prevAddr := format.NilAddr
		prevFree := false
		for off < len(s.mem) {
			h, err := format.ParseHeader(s.mem, off)
			if err != nil {
				return fmt.Errorf("%w: span %d offset %d: %w", ErrCorrupt, i, off, err)
			}
			size := int(h.Size)
			if size < HeaderSize || size%a.cfg.Granularity != 0 || off+size > len(s.mem) {
				return fmt.Errorf("%w: span %d offset %d: bad size %d", ErrCorrupt, i, off, size)
			}
			b := block{sp: s, off: off}
			if h.AdjPrev != prevAddr {
				return fmt.Errorf("%w: span %d offset %d: adjacency prev %#x, want %#x",
					ErrCorrupt, i, off, h.AdjPrev, prevAddr)
			}
			wantNext := format.NilAddr
			if off+size < len(s.mem) {
				wantNext = b.addr() + uint64(size)
			}
			if h.AdjNext != wantNext {
				return fmt.Errorf("%w: span %d offset %d: adjacency next %#x, want %#x",
					ErrCorrupt, i, off, h.AdjNext, wantNext)
			}
			if h.Free() {
				if prevFree {
					return fmt.Errorf("%w: span %d offset %d: adjacent free blocks not coalesced", ErrCorrupt, i, off)
				}
				freeSeen[b.addr()] = false
				freeBytes += size
			} else {
				inUse += size
				allocated++
			}
			prevAddr, prevFree = b.addr(), h.Free()
			off += size
		}
	}

	listed, listedBytes := 0, 0
	prev := format.NilAddr
	for cur := a.free.head; cur != format.NilAddr; {
		linked, seen := freeSeen[cur]
		if !seen {
			return fmt.Errorf("%w: free list holds %#x, which is not a free block", ErrCorrupt, cur)
		}
		if linked {
			return fmt.Errorf("%w: free list holds %#x twice", ErrCorrupt, cur)
		}
		freeSeen[cur] = true
		b := a.spans.at(cur)
		if b.freePrev() != prev {
			return fmt.Errorf("%w: free list back-link of %#x is %#x, want %#x", ErrCorrupt, cur, b.freePrev(), prev)
		}
		listed++
		listedBytes += b.size()
		prev, cur = cur, b.freeNext()
	}
	for addr, linked := range freeSeen {
		if !linked {
			return fmt.Errorf("%w: free block %#x missing from free list", ErrCorrupt, addr)
		}
	}

	switch {
	case listed != a.free.count:
		return fmt.Errorf("%w: free list length %d, cached %d", ErrCorrupt, listed, a.free.count)
	case listedBytes != a.free.bytes || freeBytes != listedBytes:
		return fmt.Errorf("%w: free bytes %d (list %d, cached %d)", ErrCorrupt, freeBytes, listedBytes, a.free.bytes)
	case inUse != a.inUse:
		return fmt.Errorf("%w: in-use bytes %d, cached %d", ErrCorrupt, inUse, a.inUse)
	case allocated != a.allocated:
		return fmt.Errorf("%w: allocated blocks %d, cached %d", ErrCorrupt, allocated, a.allocated)
	case inUse+freeBytes != a.spans.bytes:
		return fmt.Errorf("%w: blocks cover %d bytes of %d mapped", ErrCorrupt, inUse+freeBytes, a.spans.bytes)
	}
	return nil
}
