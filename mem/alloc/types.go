package alloc

import (
	"fmt"

	"github.com/joshuapare/pagealloc/internal/format"
)

// HeaderSize is the per-block metadata overhead in bytes.
const HeaderSize = format.HeaderSize

// Ref is the address of the first payload byte of an allocated block.
// The zero Ref is the null reference.
type Ref uintptr

// Policy decides how requests larger than one page are handled.
type Policy uint8

const (
	// SpanSinglePage maps one page per span and rejects larger requests.
	SpanSinglePage Policy = iota + 1

	// SpanMultiPage maps as many contiguous pages as a request needs.
	SpanMultiPage
)

func (p Policy) String() string {
	switch p {
	case SpanSinglePage:
		return "single"
	case SpanMultiPage:
		return "multi"
	default:
		return fmt.Sprintf("Policy(%d)", uint8(p))
	}
}

// ParsePolicy maps "single" or "multi" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "single", "single-page":
		return SpanSinglePage, nil
	case "multi", "multi-page":
		return SpanMultiPage, nil
	default:
		return 0, fmt.Errorf("%w: unknown span policy %q", ErrBadConfig, s)
	}
}
