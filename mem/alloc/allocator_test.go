package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/pagealloc/internal/logger"
	"github.com/joshuapare/pagealloc/mem/page"
)

// TestNewAcquiresFirstPage verifies startup maps one page as a single free block.
func TestNewAcquiresFirstPage(t *testing.T) {
	a := newTestAllocator(t)

	stats := a.Stats()
	assert.Equal(t, 1, stats.Spans)
	assert.Equal(t, 1, stats.Pages)
	assert.Equal(t, page.PageSize, stats.MappedBytes)
	assert.Equal(t, page.PageSize, stats.FreeBytes)
	assert.Equal(t, 1, stats.FreeBlocks)
	assert.Equal(t, [][3]int{{0, page.PageSize, 1}}, layout(a))
	assertInvariants(t, a)
}

// TestNewLazyFirstPage verifies InitialPages=0 defers mapping to the first Alloc.
func TestNewLazyFirstPage(t *testing.T) {
	cfg := ConfigCompact
	cfg.InitialPages = 0
	a := newTestAllocator(t, WithConfig(cfg))
	require.Zero(t, a.Stats().Spans)

	mustAlloc(t, a, 10)
	require.Equal(t, 1, a.Stats().Spans)
	assertInvariants(t, a)
}

// TestAllocBasic verifies sizing, payload placement and the split remainder.
func TestAllocBasic(t *testing.T) {
	a := newTestAllocator(t)

	ref, buf, err := a.Alloc(4)
	require.NoError(t, err)
	require.NotZero(t, ref)

	// 48-byte header + 4 bytes rounded to 16 = 64-byte block, 16-byte payload
	bi := blockOf(t, a, ref)
	assert.Equal(t, 0, bi.Offset)
	assert.Equal(t, 64, bi.Size)
	assert.False(t, bi.Free)
	assert.Len(t, buf, 16)
	assert.Equal(t, len(buf), cap(buf), "payload must not be appendable into the next header")
	assert.Equal(t, uintptr(ref), bi.Addr+HeaderSize)

	assert.Equal(t, [][3]int{{0, 64, 0}, {64, page.PageSize - 64, 1}}, layout(a))
	assert.Equal(t, 1, a.Stats().SplitCount)
	assertInvariants(t, a)
}

// TestAllocZero verifies a zero-byte request still yields a distinct block.
func TestAllocZero(t *testing.T) {
	a := newTestAllocator(t)

	r1, buf, err := a.Alloc(0)
	require.NoError(t, err)
	require.Empty(t, buf)
	r2 := mustAlloc(t, a, 0)
	require.NotEqual(t, r1, r2)
	require.Equal(t, HeaderSize, blockOf(t, a, r1).Size)
	assertInvariants(t, a)
}

func TestAllocNegative(t *testing.T) {
	a := newTestAllocator(t)
	_, _, err := a.Alloc(-1)
	require.ErrorIs(t, err, ErrNegativeSize)
	assertInvariants(t, a)
}

// TestAllocPayloadsDoNotOverlap writes distinct patterns and reads them back.
func TestAllocPayloadsDoNotOverlap(t *testing.T) {
	a := newTestAllocator(t)

	bufs := make([][]byte, 0, 20)
	for i := 0; i < 20; i++ {
		_, buf, err := a.Alloc(37 + i*11)
		require.NoError(t, err)
		for j := range buf {
			buf[j] = byte(i + 1)
		}
		bufs = append(bufs, buf)
	}
	for i, buf := range bufs {
		for j := range buf {
			require.Equal(t, byte(i+1), buf[j], "allocation %d corrupted at byte %d", i, j)
		}
	}
	assertInvariants(t, a)
}

// TestIntegerScenario allocates an int, stores 5, releases it and reallocates.
func TestIntegerScenario(t *testing.T) {
	for _, cfg := range []Config{ConfigReference, ConfigCompact} {
		t.Run(cfg.Name, func(t *testing.T) {
			a := newTestAllocator(t, WithConfig(cfg))
			initial := a.FreeBytes()

			p, buf, err := a.Alloc(4)
			require.NoError(t, err)
			writeInt32(buf, 5)
			got, err := a.Bytes(p)
			require.NoError(t, err)
			require.Equal(t, int32(5), readInt32(got))

			require.NoError(t, a.Free(p))
			assert.Equal(t, initial, a.FreeBytes())

			q, _, err := a.Alloc(4)
			require.NoError(t, err, "reallocation after release must succeed")
			require.NoError(t, a.Free(q))

			assert.Equal(t, initial, a.FreeBytes())
			assert.Equal(t, 1, a.Stats().Spans, "no extra page needed")
			assertInvariants(t, a)
		})
	}
}

// TestFreeNilIsNoop verifies the null reference is ignored.
func TestFreeNilIsNoop(t *testing.T) {
	a := newTestAllocator(t)
	require.NoError(t, a.Free(0))
	require.Zero(t, a.Stats().FreeCalls)
}

// TestCloseReleasesEverySpan verifies teardown returns all pages, not just the first.
func TestCloseReleasesEverySpan(t *testing.T) {
	src := newRecordingSource()
	a, err := New(WithSource(src), WithLogger(logger.Discard()))
	require.NoError(t, err)

	mustAlloc(t, a, 3000)
	mustAlloc(t, a, 3000)
	mustAlloc(t, a, 9000) // multi-page span
	require.Equal(t, 3, src.acquired)
	require.Equal(t, 3, a.Stats().Spans)
	require.Equal(t, 5, a.Stats().Pages)

	require.NoError(t, a.Close())
	assert.Equal(t, src.acquired, src.released)
	assert.Zero(t, src.live)
	assert.Zero(t, src.src.(*page.Heap).Live())

	// Closed allocators refuse work; closing again is harmless.
	_, _, err = a.Alloc(1)
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, a.Free(Ref(0x1000)), ErrClosed)
	_, err = a.Bytes(Ref(0x1000))
	require.ErrorIs(t, err, ErrClosed)
	require.NoError(t, a.Close())
	assert.Equal(t, 3, src.released)
}

// TestCloseJoinsReleaseErrors verifies teardown reports every failed release.
func TestCloseJoinsReleaseErrors(t *testing.T) {
	heap := page.NewHeap()
	a, err := New(WithSource(heap), WithLogger(logger.Discard()))
	require.NoError(t, err)
	mustAlloc(t, a, 4000)
	mustAlloc(t, a, 4000)

	// Pull the spans out from under the allocator.
	for _, s := range a.spans.spans {
		require.NoError(t, heap.Release(s.mem))
	}
	err = a.Close()
	require.ErrorIs(t, err, page.ErrNotOwned)
}

// TestIndependentAllocators verifies instances share no state.
func TestIndependentAllocators(t *testing.T) {
	a := newTestAllocator(t)
	b := newTestAllocator(t)

	ref := mustAlloc(t, a, 100)
	require.ErrorIs(t, b.Free(ref), ErrInvalidPointer)
	require.NoError(t, a.Free(ref))
	assertInvariants(t, a)
	assertInvariants(t, b)
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := ConfigCompact
	cfg.Granularity = 24
	_, err := New(WithConfig(cfg), WithLogger(logger.Discard()))
	require.ErrorIs(t, err, ErrBadConfig)
}

func TestNewPropagatesSourceFailure(t *testing.T) {
	_, err := New(WithSource(page.Limit(page.NewHeap(), 0)), WithLogger(logger.Discard()))
	require.ErrorIs(t, err, ErrOutOfMemory)
}
