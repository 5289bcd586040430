package alloc

// counters holds internal allocator statistics.
type counters struct {
	AllocCalls       int   // Alloc calls that passed validation
	AllocFastPath    int   // Allocations served from the free list
	AllocSlowPath    int   // Allocations that acquired a new span
	AllocFailed      int   // Allocations failed by the page source
	Rejected         int   // Requests over the size limit
	FreeCalls        int   // Successful Free calls
	BytesAllocated   int64 // Total block bytes handed out (headers included)
	BytesFreed       int64 // Total block bytes returned
	SplitCount       int   // Number of block splits
	CoalesceForward  int   // Forward coalesce operations
	CoalesceBackward int   // Backward coalesce operations
	SpansAcquired    int   // Spans mapped from the page source
	PagesAcquired    int   // Pages mapped from the page source
}

// Stats is a point-in-time snapshot of allocator activity and occupancy.
type Stats struct {
	counters

	Spans           int // Spans currently owned
	Pages           int // Pages currently owned
	MappedBytes     int // Bytes currently owned
	InUseBytes      int // Bytes in allocated blocks, headers included
	FreeBytes       int // Bytes in free blocks, headers included
	FreeBlocks      int // Free list length
	AllocatedBlocks int // Blocks currently handed out
}

// Stats returns current statistics.
func (a *Allocator) Stats() Stats {
	return Stats{
		counters:        a.stats,
		Spans:           len(a.spans.spans),
		Pages:           a.spans.pages,
		MappedBytes:     a.spans.bytes,
		InUseBytes:      a.inUse,
		FreeBytes:       a.free.bytes,
		FreeBlocks:      a.free.count,
		AllocatedBlocks: a.allocated,
	}
}

// FreeBytes is the total extent of free blocks, headers included.
func (a *Allocator) FreeBytes() int { return a.free.bytes }

// SpanStats describes the occupancy of one span.
type SpanStats struct {
	Base        uintptr
	Pages       int
	Blocks      int
	FreeBlocks  int
	InUse       int // allocated bytes, headers included
	Free        int // free bytes, headers included
	LargestFree int
}

// Efficiency is the share of the span held by allocated blocks, in percent.
func (s SpanStats) Efficiency() float64 {
	total := s.InUse + s.Free
	if total == 0 {
		return 0
	}
	return float64(s.InUse) / float64(total) * 100
}

// SpanStats reports per-span occupancy in address order.
func (a *Allocator) SpanStats() []SpanStats {
	out := make([]SpanStats, len(a.spans.spans))
	for i, s := range a.spans.spans {
		out[i] = SpanStats{Base: s.base, Pages: s.pages}
	}
	a.Walk(func(bi BlockInfo) bool {
		st := &out[bi.Span]
		st.Blocks++
		if bi.Free {
			st.FreeBlocks++
			st.Free += bi.Size
			st.LargestFree = max(st.LargestFree, bi.Size)
		} else {
			st.InUse += bi.Size
		}
		return true
	})
	return out
}
