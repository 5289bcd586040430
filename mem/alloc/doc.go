// Package alloc provides a page-backed memory allocator with an explicit free
// list, block splitting and eager coalescing.
//
// # Overview
//
// An Allocator draws spans (one or more contiguous 4KB pages) from a
// page.Source and carves them into blocks. Every block, free or in use, starts
// with a 48-byte header stored in the managed memory itself:
//
//	Offset  Size  Description
//	0x00    4     Magic "PBLK"
//	0x04    4     Flags (bit 0 = free)
//	0x08    8     Size including the header
//	0x10    8     Physical predecessor (header address, 0 = none)
//	0x18    8     Physical successor   (header address, 0 = none)
//	0x20    8     Free-list predecessor (valid only while free)
//	0x28    8     Free-list successor   (valid only while free)
//
// The adjacency pair follows memory layout and is only touched by split and
// coalesce. The free-list pair is only touched by free-list insert and remove.
//
// # Allocation
//
//	a, err := alloc.New()
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	ref, buf, err := a.Alloc(256)
//	if err != nil {
//	    return err
//	}
//	copy(buf, payload)
//
//	err = a.Free(ref)
//
// Alloc rounds header+size up to the configured granularity, takes the first
// free block large enough (LIFO list order, no best-fit) and splits off the
// remainder when it can hold a header plus MinSplitPayload bytes. When nothing
// fits a new span is acquired: a single page under SpanSinglePage (larger
// requests fail with ErrRequestTooLarge), or as many contiguous pages as the
// request needs under SpanMultiPage.
//
// Free validates the reference, rejects double frees with ErrAlreadyFree,
// merges with free physical neighbours in both directions and pushes the
// result onto the free list.
//
// # Configurations
//
//	ConfigReference: page granularity, single-page spans
//	ConfigCompact:   16-byte granularity, multi-page spans (DefaultConfig)
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers sharing one must guard
// Alloc and Free with a single mutex.
package alloc
