// Package page provides the memory sources an allocator draws its spans from.
//
// A Source hands out regions whose length is a positive multiple of PageSize
// and takes them back on Release. The OS-backed source maps anonymous private
// memory with mmap; the heap source serves platforms without mmap and tests
// that want plain Go memory.
package page

import (
	"errors"
	"fmt"

	"github.com/joshuapare/pagealloc/internal/format"
)

// PageSize is the fixed unit in which sources hand out memory.
const PageSize = format.PageSize

var (
	// ErrOutOfMemory indicates the source could not satisfy a request.
	ErrOutOfMemory = errors.New("page: out of memory")

	// ErrBadSize indicates a request that is not a positive multiple of PageSize.
	ErrBadSize = errors.New("page: size must be a positive multiple of the page size")

	// ErrNotOwned indicates Release was handed memory the source never produced.
	ErrNotOwned = errors.New("page: region not owned by source")
)

// Source acquires and releases page-multiple memory regions.
//
// Release must be passed the exact slice Acquire returned (not a reslice).
// Implementations are not required to detect foreign regions; callers keep
// their own ownership records.
type Source interface {
	Acquire(size int) ([]byte, error)
	Release(mem []byte) error
}

// Pages returns the number of pages needed to hold n bytes.
func Pages(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + PageSize - 1) / PageSize
}

func checkSize(size int) error {
	if size <= 0 || size%PageSize != 0 {
		return fmt.Errorf("%w (got %d)", ErrBadSize, size)
	}
	return nil
}
