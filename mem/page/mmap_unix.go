//go:build unix

package page

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Mmap maps anonymous private memory straight from the kernel.
type Mmap struct{}

// Acquire maps size bytes of read/write memory. The kernel zero-fills the
// pages, though callers must not rely on it.
func (Mmap) Acquire(size int) ([]byte, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %d bytes: %w", ErrOutOfMemory, size, err)
	}
	return mem, nil
}

// Release unmaps mem, which must be the exact slice returned by Acquire.
func (Mmap) Release(mem []byte) error {
	if len(mem) == 0 {
		return nil
	}
	err := unix.Munmap(mem)
	if errors.Is(err, unix.EINVAL) {
		// x/sys reports EINVAL for slices it never mapped (or already unmapped).
		return fmt.Errorf("munmap: %w", ErrNotOwned)
	}
	if err != nil {
		return fmt.Errorf("page: munmap: %w", err)
	}
	return nil
}

// Default returns the OS-backed source.
func Default() Source { return Mmap{} }

// OSPageSize reports the kernel page size.
func OSPageSize() int { return unix.Getpagesize() }
