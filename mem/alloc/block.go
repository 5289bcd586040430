package alloc

import "github.com/joshuapare/pagealloc/internal/format"

// block is a view of one header inside a span. Every accessor reads or writes
// the header bytes directly; block values hold no state of their own.
type block struct {
	sp  *span
	off int
}

func (b block) addr() uint64 { return uint64(b.sp.base) + uint64(b.off) }

func (b block) ref() Ref { return Ref(b.sp.base + uintptr(b.off) + HeaderSize) }

func (b block) size() int {
	return int(format.ReadU64(b.sp.mem, b.off+format.BlockSizeOffset))
}

func (b block) setSize(n int) {
	format.PutU64(b.sp.mem, b.off+format.BlockSizeOffset, uint64(n))
}

func (b block) free() bool {
	return format.ReadU32(b.sp.mem, b.off+format.BlockFlagsOffset)&format.FlagFree != 0
}

func (b block) setFree(free bool) {
	flags := format.ReadU32(b.sp.mem, b.off+format.BlockFlagsOffset)
	if free {
		flags |= format.FlagFree
	} else {
		flags &^= format.FlagFree
	}
	format.PutU32(b.sp.mem, b.off+format.BlockFlagsOffset, flags)
}

func (b block) link(field int) uint64 { return format.ReadU64(b.sp.mem, b.off+field) }

func (b block) setLink(field int, addr uint64) { format.PutU64(b.sp.mem, b.off+field, addr) }

func (b block) adjPrev() uint64 { return b.link(format.BlockAdjPrevOffset) }
func (b block) adjNext() uint64 { return b.link(format.BlockAdjNextOffset) }
func (b block) freePrev() uint64 { return b.link(format.BlockFreePrevOffset) }
func (b block) freeNext() uint64 { return b.link(format.BlockFreeNextOffset) }
func (b block) setAdjPrev(addr uint64) { b.setLink(format.BlockAdjPrevOffset, addr) }
func (b block) setAdjNext(addr uint64) { b.setLink(format.BlockAdjNextOffset, addr) }
func (b block) setFreePrev(addr uint64) { b.setLink(format.BlockFreePrevOffset, addr) }
func (b block) setFreeNext(addr uint64) { b.setLink(format.BlockFreeNextOffset, addr) }

// payload is the caller-visible part of the block.
func (b block) payload() []byte {
	return b.sp.mem[b.off+HeaderSize : b.off+b.size() : b.off+b.size()]
}

// scrub erases the magic of a header that stopped being a block boundary,
// so stale references to it fail validation.
func (b block) scrub() {
	format.PutU32(b.sp.mem, b.off+format.BlockMagicOffset, 0)
}

// info snapshots the block for callers outside the package.
func (b block) info(spanIndex int) BlockInfo {
	return BlockInfo{
		Ref:    b.ref(),
		Addr:   uintptr(b.addr()),
		Span:   spanIndex,
		Offset: b.off,
		Size:   b.size(),
		Free:   b.free(),
	}
}
