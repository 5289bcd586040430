//go:build !unix

package page

import "os"

// Default returns the heap source when mmap is not available.
func Default() Source { return NewHeap() }

// OSPageSize reports the platform page size.
func OSPageSize() int { return os.Getpagesize() }
