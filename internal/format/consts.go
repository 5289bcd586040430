// Package format houses the low-level layout of allocator block headers. The
// goal is to keep the encoding focused, allocation-free, and independent from
// the public API so the allocator can treat headers as plain byte ranges.
package format

const (
	// BlockMagic is stored in the first four bytes of every block header.
	// Layout (little-endian):
	//   0x00  'P' 'B' 'L' 'K'
	BlockMagic uint32 = 0x4B4C4250

	// HeaderSize is the number of bytes used by the block header preceding
	// every managed region (free or in-use).
	HeaderSize = 0x30

	// HeaderAlignment is the natural alignment of the header's widest field.
	HeaderAlignment = 8

	// HeaderAlignmentMask is the bitmask used for aligning to 8-byte boundaries (HeaderAlignment - 1).
	HeaderAlignmentMask = HeaderAlignment - 1

	// PageSize is the fixed unit requested from the operating system.
	PageSize = 0x1000

	// PageAlignmentMask is the bitmask used for aligning to 4KB boundaries (PageSize - 1).
	PageAlignmentMask = PageSize - 1

	// NilAddr marks an absent link in a header.
	NilAddr uint64 = 0

	// Block header field offsets.
	BlockMagicOffset    = 0x00 // 4
	BlockFlagsOffset    = 0x04 // 4
	BlockSizeOffset     = 0x08 // 8, total extent including header
	BlockAdjPrevOffset  = 0x10 // 8, header address of physical predecessor
	BlockAdjNextOffset  = 0x18 // 8, header address of physical successor
	BlockFreePrevOffset = 0x20 // 8, free-list predecessor
	BlockFreeNextOffset = 0x28 // 8, free-list successor

	// FlagFree is set while a block is linked into the free list.
	FlagFree uint32 = 1 << 0
)
