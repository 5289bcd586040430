package page

import (
	"fmt"
	"unsafe"
)

// Heap serves regions from the Go heap. The Go collector does not move heap
// objects, so addresses of handed-out regions stay stable while the Heap keeps
// them reachable.
type Heap struct {
	live map[uintptr][]byte
}

// NewHeap returns an empty heap-backed source.
func NewHeap() *Heap {
	return &Heap{live: make(map[uintptr][]byte)}
}

func (h *Heap) Acquire(size int) ([]byte, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	mem := make([]byte, size)
	h.live[baseOf(mem)] = mem
	return mem, nil
}

func (h *Heap) Release(mem []byte) error {
	if len(mem) == 0 {
		return nil
	}
	base := baseOf(mem)
	if _, ok := h.live[base]; !ok {
		return fmt.Errorf("heap release at %#x: %w", base, ErrNotOwned)
	}
	delete(h.live, base)
	return nil
}

// Live returns the number of regions acquired and not yet released.
func (h *Heap) Live() int { return len(h.live) }

func baseOf(mem []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(mem)))
}
