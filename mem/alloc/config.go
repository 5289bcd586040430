package alloc

import (
	"fmt"

	"github.com/joshuapare/pagealloc/internal/format"
	"github.com/joshuapare/pagealloc/mem/page"
)

// Config defines the sizing policy of an Allocator.
type Config struct {
	// Name for this configuration (for logs and CLI output)
	Name string

	// Granularity every block size is rounded up to. Power of two between
	// 8 and page.PageSize.
	Granularity int

	// MinSplitPayload is the smallest payload a split remainder must be able
	// to hold. Smaller remainders are absorbed into the allocated block.
	MinSplitPayload int

	// Policy for requests larger than one page.
	Policy Policy

	// MaxSpanPages caps the pages in one span (SpanMultiPage only).
	MaxSpanPages int

	// InitialPages is the size of the span acquired by New. Zero defers the
	// first acquisition to the first Alloc.
	InitialPages int
}

// Predefined configurations.
var (
	// ConfigReference rounds every block to a whole page and never maps more
	// than one page per span.
	ConfigReference = Config{
		Name:            "Reference",
		Granularity:     page.PageSize,
		MinSplitPayload: 16,
		Policy:          SpanSinglePage,
		MaxSpanPages:    1,
		InitialPages:    1,
	}

	// ConfigCompact packs blocks at 16-byte granularity and maps multi-page
	// spans for large requests.
	ConfigCompact = Config{
		Name:            "Compact",
		Granularity:     16,
		MinSplitPayload: 16,
		Policy:          SpanMultiPage,
		MaxSpanPages:    256,
		InitialPages:    1,
	}

	// Default configuration (used if none specified).
	DefaultConfig = ConfigCompact
)

// Validate reports the first problem with c, wrapped in ErrBadConfig.
func (c Config) Validate() error {
	switch {
	case !format.IsPow2(c.Granularity):
		return fmt.Errorf("%w: granularity %d is not a power of two", ErrBadConfig, c.Granularity)
	case c.Granularity < format.HeaderAlignment || c.Granularity > page.PageSize:
		return fmt.Errorf("%w: granularity %d outside [%d, %d]",
			ErrBadConfig, c.Granularity, format.HeaderAlignment, page.PageSize)
	case c.MinSplitPayload < 0:
		return fmt.Errorf("%w: negative min split payload", ErrBadConfig)
	case c.Policy != SpanSinglePage && c.Policy != SpanMultiPage:
		return fmt.Errorf("%w: unknown policy %v", ErrBadConfig, c.Policy)
	case c.Policy == SpanMultiPage && c.MaxSpanPages < 1:
		return fmt.Errorf("%w: max span pages must be at least 1", ErrBadConfig)
	case c.InitialPages < 0 || c.InitialPages > c.spanPages():
		return fmt.Errorf("%w: initial pages %d outside [0, %d]", ErrBadConfig, c.InitialPages, c.spanPages())
	}
	return nil
}

// spanPages is the largest span the policy allows.
func (c Config) spanPages() int {
	if c.Policy == SpanSinglePage {
		return 1
	}
	return c.MaxSpanPages
}

// MaxBlockSize is the largest block extent (header included) one span holds.
func (c Config) MaxBlockSize() int {
	return c.spanPages() * page.PageSize
}

// MaxRequest is the largest size Alloc accepts.
func (c Config) MaxRequest() int {
	return c.MaxBlockSize() - HeaderSize
}
