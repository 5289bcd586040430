package page

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeapAcquireRelease(t *testing.T) {
	h := NewHeap()
	a, err := h.Acquire(PageSize)
	require.NoError(t, err)
	b, err := h.Acquire(3 * PageSize)
	require.NoError(t, err)
	require.Len(t, b, 3*PageSize)
	require.Equal(t, 2, h.Live())

	require.NoError(t, h.Release(a))
	require.Equal(t, 1, h.Live())
	require.ErrorIs(t, h.Release(a), ErrNotOwned, "double release must be reported")

	require.NoError(t, h.Release(b))
	require.Zero(t, h.Live())
}

func TestHeapRejectsForeignRegion(t *testing.T) {
	h := NewHeap()
	foreign := make([]byte, PageSize)
	require.ErrorIs(t, h.Release(foreign), ErrNotOwned)
	require.NoError(t, h.Release(nil))
}

func TestPages(t *testing.T) {
	require.Equal(t, 0, Pages(0))
	require.Equal(t, 1, Pages(1))
	require.Equal(t, 1, Pages(PageSize))
	require.Equal(t, 2, Pages(PageSize+1))
}
