package format

// Alignment utilities for block layout.
// Block sizes are rounded to the allocator granularity, which is always a
// power of two between HeaderAlignment and PageSize.

// Align8 returns n aligned up to the next 8-byte boundary.
//
// Example:
//
//	Align8(1)  = 8
//	Align8(8)  = 8
//	Align8(9)  = 16
func Align8(n int) int {
	return (n + HeaderAlignmentMask) & ^HeaderAlignmentMask
}

// AlignPage returns n aligned up to the next 4KB (4096-byte) boundary.
//
// Example:
//
//	AlignPage(1)    = 4096
//	AlignPage(4096) = 4096
//	AlignPage(4097) = 8192
func AlignPage(n int) int {
	return (n + PageAlignmentMask) & ^PageAlignmentMask
}

// Align returns n aligned up to the next multiple of to, which must be a
// power of two. The second result is false when the rounded value would
// overflow an int.
func Align(n, to int) (int, bool) {
	mask := to - 1
	if n > maxInt-mask {
		return 0, false
	}
	return (n + mask) & ^mask, true
}

// IsPow2 reports whether n is a positive power of two.
func IsPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

const maxInt = int(^uint(0) >> 1)
