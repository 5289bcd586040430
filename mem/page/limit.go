package page

import "fmt"

// Limited wraps a Source with a byte budget. Once the budget is spent every
// Acquire fails with ErrOutOfMemory until memory is released again.
type Limited struct {
	src   Source
	max   int
	inUse int
}

// Limit caps the bytes src may have outstanding at any time.
func Limit(src Source, maxBytes int) *Limited {
	return &Limited{src: src, max: maxBytes}
}

func (l *Limited) Acquire(size int) ([]byte, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	if l.inUse+size > l.max {
		return nil, fmt.Errorf("%w: budget %d bytes, in use %d, requested %d",
			ErrOutOfMemory, l.max, l.inUse, size)
	}
	mem, err := l.src.Acquire(size)
	if err != nil {
		return nil, err
	}
	l.inUse += len(mem)
	return mem, nil
}

func (l *Limited) Release(mem []byte) error {
	if err := l.src.Release(mem); err != nil {
		return err
	}
	l.inUse -= len(mem)
	return nil
}

// InUse returns the bytes currently outstanding.
func (l *Limited) InUse() int { return l.inUse }
