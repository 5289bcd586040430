package alloc

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/joshuapare/pagealloc/internal/format"
	"github.com/joshuapare/pagealloc/internal/logger"
	"github.com/joshuapare/pagealloc/mem/page"
)

// Allocator serves variable-size requests out of page spans using a single
// first-fit free list. All state lives in the instance; independent
// allocators never share spans.
type Allocator struct {
	cfg Config
	src page.Source
	log *slog.Logger

	spans spanSet
	free  freeList

	inUse     int // bytes held by allocated blocks, headers included
	allocated int // number of allocated blocks
	closed    bool

	// Statistics for testing and instrumentation
	stats counters
}

// Option customises New.
type Option func(*Allocator)

// WithConfig replaces DefaultConfig.
func WithConfig(c Config) Option { return func(a *Allocator) { a.cfg = c } }

// WithSource replaces page.Default().
func WithSource(src page.Source) Option { return func(a *Allocator) { a.src = src } }

// WithLogger replaces the logger derived from the PAGEALLOC_LOG environment variable.
func WithLogger(l *slog.Logger) Option { return func(a *Allocator) { a.log = l } }

// New creates an allocator and acquires its first span (Config.InitialPages).
//
// Parameters:
//   - opts: WithConfig, WithSource, WithLogger (all optional)
func New(opts ...Option) (*Allocator, error) {
	a := &Allocator{cfg: DefaultConfig}
	for _, opt := range opts {
		opt(a)
	}
	if a.src == nil {
		a.src = page.Default()
	}
	if a.log == nil {
		a.log = logger.FromEnv()
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	a.free.spans = &a.spans

	if a.cfg.InitialPages > 0 {
		b, err := a.grow(a.cfg.InitialPages)
		if err != nil {
			return nil, err
		}
		a.free.insert(b)
	}
	a.log.Debug("allocator ready",
		"config", a.cfg.Name,
		"policy", a.cfg.Policy.String(),
		"granularity", a.cfg.Granularity,
		"initial_pages", a.cfg.InitialPages)
	return a, nil
}

// Config returns the configuration the allocator was built with.
func (a *Allocator) Config() Config { return a.cfg }

// Alloc returns a reference to at least size bytes and the payload slice
// backing it. The payload stays valid until the reference is freed or the
// allocator is closed.
//
// On error nothing observable changes: the free list and every block are left
// exactly as before the call.
func (a *Allocator) Alloc(size int) (Ref, []byte, error) {
	if a.closed {
		return 0, nil, ErrClosed
	}
	if size < 0 {
		return 0, nil, fmt.Errorf("%w: %d", ErrNegativeSize, size)
	}
	total, ok := a.blockSize(size)
	if !ok || total > a.cfg.MaxBlockSize() {
		a.stats.Rejected++
		a.log.Debug("request rejected", "size", size, "max", a.cfg.MaxRequest())
		return 0, nil, fmt.Errorf("%w: %d bytes (max %d under %s policy)",
			ErrRequestTooLarge, size, a.cfg.MaxRequest(), a.cfg.Policy)
	}

	a.stats.AllocCalls++
	b, found := a.free.findFirstFit(total)
	if found {
		a.stats.AllocFastPath++
	} else {
		var err error
		b, err = a.grow(a.pagesFor(total))
		if err != nil {
			a.stats.AllocFailed++
			return 0, nil, err
		}
		a.stats.AllocSlowPath++
	}

	a.split(b, total)
	b.setFree(false)
	a.inUse += b.size()
	a.allocated++
	a.stats.BytesAllocated += int64(b.size())

	return b.ref(), b.payload(), nil
}

// Free releases the block behind ref and merges it with free neighbours.
// Freeing the zero Ref is a no-op.
func (a *Allocator) Free(ref Ref) error {
	if ref == 0 {
		return nil
	}
	if a.closed {
		return ErrClosed
	}
	b, err := a.resolve(ref)
	if err != nil {
		return err
	}
	if b.free() {
		return fmt.Errorf("%w: %#x", ErrAlreadyFree, uintptr(ref))
	}

	a.stats.FreeCalls++
	a.stats.BytesFreed += int64(b.size())
	a.inUse -= b.size()
	a.allocated--
	b.setFree(true)

	// Backward: fold b into its predecessor and carry on with the merged block.
	if prevAddr := b.adjPrev(); prevAddr != format.NilAddr {
		prev := a.spans.at(prevAddr)
		if prev.free() {
			a.stats.CoalesceBackward++
			a.free.remove(prev)
			a.absorb(prev, b)
			b = prev
		}
	}

	// Forward: the successor is already a list member, so unlink it first.
	if nextAddr := b.adjNext(); nextAddr != format.NilAddr {
		next := a.spans.at(nextAddr)
		if next.free() {
			a.stats.CoalesceForward++
			a.free.remove(next)
			a.absorb(b, next)
		}
	}

	a.free.insert(b)
	return nil
}

// Bytes returns the payload of the allocated block behind ref.
func (a *Allocator) Bytes(ref Ref) ([]byte, error) {
	if a.closed {
		return nil, ErrClosed
	}
	b, err := a.resolve(ref)
	if err != nil {
		return nil, err
	}
	if b.free() {
		return nil, fmt.Errorf("%w: %#x", ErrAlreadyFree, uintptr(ref))
	}
	return b.payload(), nil
}

// Close returns every span to the page source. The allocator is unusable
// afterwards; a second Close is a no-op.
func (a *Allocator) Close() error {
	if a.closed {
		return nil
	}
	var errs []error
	for _, s := range a.spans.spans {
		if err := a.src.Release(s.mem); err != nil {
			errs = append(errs, fmt.Errorf("alloc: release span %#x (%d pages): %w", s.base, s.pages, err))
		}
	}
	a.log.Debug("allocator closed",
		"spans", len(a.spans.spans),
		"pages", a.spans.pages,
		"leaked_blocks", a.allocated,
		"errors", len(errs))

	a.spans.reset()
	a.free.reset()
	a.inUse = 0
	a.allocated = 0
	a.closed = true
	return errors.Join(errs...)
}

// blockSize is header+size rounded to the granularity.
func (a *Allocator) blockSize(size int) (int, bool) {
	if size > math.MaxInt-HeaderSize {
		return 0, false
	}
	return format.Align(HeaderSize+size, a.cfg.Granularity)
}

// pagesFor is the span size used when no free block fits total bytes.
func (a *Allocator) pagesFor(total int) int {
	if a.cfg.Policy == SpanSinglePage {
		return 1
	}
	return page.Pages(total)
}

// grow maps a span of n pages and formats it as one free block. The block is
// returned unlinked; the caller either uses it or inserts it.
func (a *Allocator) grow(n int) (block, error) {
	mem, err := a.src.Acquire(n * page.PageSize)
	if err != nil {
		a.log.Debug("span acquisition failed", "pages", n, "err", err)
		if !errors.Is(err, ErrOutOfMemory) {
			err = fmt.Errorf("%w: %w", ErrOutOfMemory, err)
		}
		return block{}, fmt.Errorf("alloc: acquire %d pages: %w", n, err)
	}
	if len(mem) != n*page.PageSize {
		_ = a.src.Release(mem)
		return block{}, fmt.Errorf("%w: source returned %d bytes for %d pages", ErrOutOfMemory, len(mem), n)
	}

	s := newSpan(mem)
	a.spans.add(s)
	a.stats.SpansAcquired++
	a.stats.PagesAcquired += n

	b := block{sp: s, off: 0}
	format.PutHeader(s.mem, 0, format.Header{
		Flags: format.FlagFree,
		Size:  uint64(len(mem)),
	})
	a.log.Debug("span acquired", "pages", n, "base", fmt.Sprintf("%#x", s.base), "spans", len(a.spans.spans))
	return b, nil
}

// split carves the tail of b into a new free block when the remainder can
// hold a header plus MinSplitPayload bytes. b must be unlinked.
func (a *Allocator) split(b block, total int) {
	rem := b.size() - total
	if rem < HeaderSize+a.cfg.MinSplitPayload {
		return
	}
	a.stats.SplitCount++

	tail := block{sp: b.sp, off: b.off + total}
	next := b.adjNext()
	format.PutHeader(tail.sp.mem, tail.off, format.Header{
		Flags:   format.FlagFree,
		Size:    uint64(rem),
		AdjPrev: b.addr(),
		AdjNext: next,
	})
	if next != format.NilAddr {
		a.spans.at(next).setAdjPrev(tail.addr())
	}
	b.setAdjNext(tail.addr())
	b.setSize(total)

	a.free.insert(tail)
}

// absorb merges src, the physical successor of dst, into dst. Neither block
// may be on the free list.
func (a *Allocator) absorb(dst, src block) {
	dst.setSize(dst.size() + src.size())
	next := src.adjNext()
	dst.setAdjNext(next)
	if next != format.NilAddr {
		a.spans.at(next).setAdjPrev(dst.addr())
	}
	src.scrub()
}

// resolve maps a payload reference back to its block, rejecting anything
// that is not the start of a live block in one of our spans.
func (a *Allocator) resolve(ref Ref) (block, error) {
	if uintptr(ref) < HeaderSize {
		return block{}, fmt.Errorf("%w: %#x", ErrInvalidPointer, uintptr(ref))
	}
	hdr := uint64(ref) - HeaderSize
	b, ok := a.spans.lookup(hdr)
	if !ok {
		return block{}, fmt.Errorf("%w: %#x is outside every span", ErrInvalidPointer, uintptr(ref))
	}
	if b.off%a.cfg.Granularity != 0 {
		return block{}, fmt.Errorf("%w: %#x is not block aligned", ErrInvalidPointer, uintptr(ref))
	}
	h, err := format.ParseHeader(b.sp.mem, b.off)
	if err != nil {
		return block{}, fmt.Errorf("%w: %#x: %w", ErrInvalidPointer, uintptr(ref), err)
	}
	if h.Size < HeaderSize || b.off+int(h.Size) > len(b.sp.mem) {
		return block{}, fmt.Errorf("%w: %#x has bad size %d", ErrInvalidPointer, uintptr(ref), h.Size)
	}

	// A stray magic in payload bytes cannot fake the adjacency back-link.
	if h.AdjPrev == format.NilAddr {
		if b.off != 0 {
			return block{}, fmt.Errorf("%w: %#x is not linked into its span", ErrInvalidPointer, uintptr(ref))
		}
	} else {
		prev, ok := a.spans.lookup(h.AdjPrev)
		if !ok || prev.sp != b.sp || prev.off >= b.off || prev.adjNext() != hdr {
			return block{}, fmt.Errorf("%w: %#x is not linked into its span", ErrInvalidPointer, uintptr(ref))
		}
	}
	return b, nil
}
