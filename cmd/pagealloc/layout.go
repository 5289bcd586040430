package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/pagealloc/mem/alloc"
)

var (
	layoutSizes []int
	layoutFree  []int
)

func init() {
	cmd := newLayoutCmd()
	cmd.Flags().IntSliceVar(&layoutSizes, "sizes", []int{24, 100, 300}, "Request sizes to allocate, in order")
	cmd.Flags().IntSliceVar(&layoutFree, "free", nil, "Indices (into --sizes) to free afterwards, in order")
	rootCmd.AddCommand(cmd)
}

func newLayoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Print the block map after a scripted sequence",
		Long: `The layout command allocates the given sizes, frees the given indices
and prints every block of every span in address order, followed by the free
list in list order.

Example:
  pagealloc layout --sizes 16,208,16,80,16 --free 3,1
  pagealloc layout --preset reference --sizes 4,4 --free 0 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout()
		},
	}
}

// LayoutBlock is one row of the block map.
type LayoutBlock struct {
	Span    int    `json:"span"`
	Offset  int    `json:"offset"`
	Size    int    `json:"size"`
	Payload int    `json:"payload"`
	Free    bool   `json:"free"`
	Label   string `json:"label,omitempty"`
}

// LayoutResult is the JSON form of a layout run.
type LayoutResult struct {
	Config    string            `json:"config"`
	Blocks    []LayoutBlock     `json:"blocks"`
	FreeList  []int             `json:"free_list"` // block sizes in list order
	Spans     []alloc.SpanStats `json:"spans"`
	Allocated int               `json:"allocated"`
}

func runLayout() error {
	a, err := newAllocator()
	if err != nil {
		return err
	}
	defer a.Close()

	refs := make([]alloc.Ref, len(layoutSizes))
	labels := make(map[alloc.Ref]string, len(layoutSizes))
	for i, size := range layoutSizes {
		ref, _, err := a.Alloc(size)
		if err != nil {
			return fmt.Errorf("alloc #%d (%d bytes): %w", i, size, err)
		}
		refs[i] = ref
		labels[ref] = fmt.Sprintf("#%d", i)
		printVerbose("alloc #%d: %d bytes at %#x\n", i, size, uintptr(ref))
	}
	for _, idx := range layoutFree {
		if idx < 0 || idx >= len(refs) {
			return fmt.Errorf("--free index %d out of range [0, %d)", idx, len(refs))
		}
		if err := a.Free(refs[idx]); err != nil {
			return fmt.Errorf("free #%d: %w", idx, err)
		}
		printVerbose("free #%d\n", idx)
	}

	res := LayoutResult{Config: a.Config().Name, Spans: a.SpanStats(), Allocated: a.Stats().AllocatedBlocks}
	a.Walk(func(bi alloc.BlockInfo) bool {
		lb := LayoutBlock{Span: bi.Span, Offset: bi.Offset, Size: bi.Size, Payload: bi.Payload(), Free: bi.Free}
		if !bi.Free {
			lb.Label = labels[bi.Ref]
		}
		res.Blocks = append(res.Blocks, lb)
		return true
	})
	for _, bi := range a.FreeBlocks() {
		res.FreeList = append(res.FreeList, bi.Size)
	}

	if jsonOut {
		return printJSON(res)
	}

	printInfo("Block map (%s config)\n", res.Config)
	span := -1
	for _, b := range res.Blocks {
		if b.Span != span {
			span = b.Span
			st := res.Spans[span]
			printInfo("\nSpan %d: %d page(s), %.1f%% in use\n", span, st.Pages, st.Efficiency())
			printInfo("  %8s  %8s  %8s  %-5s  %s\n", "OFFSET", "SIZE", "PAYLOAD", "STATE", "ALLOC")
		}
		state := "used"
		if b.Free {
			state = "free"
		}
		printInfo("  %8d  %8d  %8d  %-5s  %s\n", b.Offset, b.Size, b.Payload, state, b.Label)
	}

	sizes := make([]string, len(res.FreeList))
	for i, s := range res.FreeList {
		sizes[i] = fmt.Sprint(s)
	}
	printInfo("\nFree list: [%s]\n", strings.Join(sizes, " -> "))
	return nil
}
