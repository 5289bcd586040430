package alloc

import (
	"errors"

	"github.com/joshuapare/pagealloc/mem/page"
)

var (
	// ErrOutOfMemory indicates the page source could not supply a span.
	ErrOutOfMemory = page.ErrOutOfMemory

	// ErrRequestTooLarge indicates a request larger than one span can hold
	// under the configured policy.
	ErrRequestTooLarge = errors.New("alloc: request too large")

	// ErrInvalidPointer indicates a reference this allocator did not hand out.
	ErrInvalidPointer = errors.New("alloc: invalid pointer")

	// ErrAlreadyFree indicates a release of a block that is already free.
	ErrAlreadyFree = errors.New("alloc: block already free")

	// ErrClosed indicates use of an allocator after Close.
	ErrClosed = errors.New("alloc: allocator closed")

	// ErrNegativeSize indicates a negative request size.
	ErrNegativeSize = errors.New("alloc: negative size")

	// ErrPointerType indicates Make was asked for a type holding Go pointers.
	ErrPointerType = errors.New("alloc: type contains pointers")

	// ErrBadConfig indicates an invalid Config.
	ErrBadConfig = errors.New("alloc: bad config")

	// ErrCorrupt indicates CheckInvariants found inconsistent metadata.
	ErrCorrupt = errors.New("alloc: corrupt heap metadata")
)
