package alloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/pagealloc/internal/logger"
	"github.com/joshuapare/pagealloc/mem/page"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestAllocator builds an allocator with a discarding logger and closes it
// when the test ends.
func newTestAllocator(t testing.TB, opts ...Option) *Allocator {
	t.Helper()
	a, err := New(append([]Option{WithLogger(logger.Discard())}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, a.Close())
	})
	return a
}

// assertInvariants fails the test when allocator metadata is inconsistent.
func assertInvariants(t testing.TB, a *Allocator) {
	t.Helper()
	require.NoError(t, a.CheckInvariants())
}

// mustAlloc allocates size bytes and fails the test on error.
func mustAlloc(t testing.TB, a *Allocator, size int) Ref {
	t.Helper()
	ref, buf, err := a.Alloc(size)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(buf), size)
	return ref
}

// blockOf returns the BlockInfo describing ref.
func blockOf(t testing.TB, a *Allocator, ref Ref) BlockInfo {
	t.Helper()
	var found BlockInfo
	ok := false
	a.Walk(func(bi BlockInfo) bool {
		if bi.Ref == ref {
			found, ok = bi, true
			return false
		}
		return true
	})
	require.True(t, ok, "no block for ref %#x", uintptr(ref))
	return found
}

// freeSizes returns the free list sizes in list order.
func freeSizes(a *Allocator) []int {
	var sizes []int
	for _, bi := range a.FreeBlocks() {
		sizes = append(sizes, bi.Size)
	}
	return sizes
}

// layout returns (offset, size, free) triples for every block in walk order.
func layout(a *Allocator) [][3]int {
	var out [][3]int
	a.Walk(func(bi BlockInfo) bool {
		free := 0
		if bi.Free {
			free = 1
		}
		out = append(out, [3]int{bi.Offset, bi.Size, free})
		return true
	})
	return out
}

func writeInt32(buf []byte, v int32) {
	*(*int32)(unsafe.Pointer(unsafe.SliceData(buf))) = v
}

func readInt32(buf []byte) int32 {
	return *(*int32)(unsafe.Pointer(unsafe.SliceData(buf)))
}

// recordingSource counts what passes through to the wrapped source.
type recordingSource struct {
	src      page.Source
	acquired int
	released int
	live     int
}

func newRecordingSource() *recordingSource {
	return &recordingSource{src: page.NewHeap()}
}

func (r *recordingSource) Acquire(size int) ([]byte, error) {
	mem, err := r.src.Acquire(size)
	if err != nil {
		return nil, err
	}
	r.acquired++
	r.live++
	return mem, nil
}

func (r *recordingSource) Release(mem []byte) error {
	if err := r.src.Release(mem); err != nil {
		return err
	}
	r.released++
	r.live--
	return nil
}
