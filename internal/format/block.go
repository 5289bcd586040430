package format

import "fmt"

// Header is the decoded form of a block header.
//
// Block header layout (little-endian):
//
//	Offset  Size  Description
//	0x00    4     Magic (BlockMagic)
//	0x04    4     Flags. Bit 0 set => free.
//	0x08    8     Size of the block including this header.
//	0x10    8     Header address of the physically previous block (0 = none).
//	0x18    8     Header address of the physically next block (0 = none).
//	0x20    8     Free-list predecessor (valid only while free).
//	0x28    8     Free-list successor (valid only while free).
//	0x30    ...   Payload.
type Header struct {
	Flags    uint32
	Size     uint64
	AdjPrev  uint64
	AdjNext  uint64
	FreePrev uint64
	FreeNext uint64
}

// Free reports whether the free flag is set.
func (h Header) Free() bool { return h.Flags&FlagFree != 0 }

// PutHeader encodes h at off, stamping the magic.
func PutHeader(b []byte, off int, h Header) {
	PutU32(b, off+BlockMagicOffset, BlockMagic)
	PutU32(b, off+BlockFlagsOffset, h.Flags)
	PutU64(b, off+BlockSizeOffset, h.Size)
	PutU64(b, off+BlockAdjPrevOffset, h.AdjPrev)
	PutU64(b, off+BlockAdjNextOffset, h.AdjNext)
	PutU64(b, off+BlockFreePrevOffset, h.FreePrev)
	PutU64(b, off+BlockFreeNextOffset, h.FreeNext)
}

// ParseHeader decodes the header at off. The caller must ensure off is the
// start of a block; ParseHeader only checks bounds, alignment and magic.
func ParseHeader(b []byte, off int) (Header, error) {
	if off < 0 || off+HeaderSize > len(b) {
		return Header{}, fmt.Errorf("header: %w", ErrTruncated)
	}
	if off&HeaderAlignmentMask != 0 {
		return Header{}, fmt.Errorf("header at %d: %w", off, ErrMisaligned)
	}
	if ReadU32(b, off+BlockMagicOffset) != BlockMagic {
		return Header{}, fmt.Errorf("header at %d: %w", off, ErrSignatureMismatch)
	}
	return Header{
		Flags:    ReadU32(b, off+BlockFlagsOffset),
		Size:     ReadU64(b, off+BlockSizeOffset),
		AdjPrev:  ReadU64(b, off+BlockAdjPrevOffset),
		AdjNext:  ReadU64(b, off+BlockAdjNextOffset),
		FreePrev: ReadU64(b, off+BlockFreePrevOffset),
		FreeNext: ReadU64(b, off+BlockFreeNextOffset),
	}, nil
}

// HasMagic reports whether a header magic is present at off.
func HasMagic(b []byte, off int) bool {
	if off < 0 || off+HeaderSize > len(b) {
		return false
	}
	return ReadU32(b, off+BlockMagicOffset) == BlockMagic
}
