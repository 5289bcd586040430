package main

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/pagealloc/mem/alloc"
)

var (
	stressOps     int
	stressSeed    int64
	stressMaxSize int
	stressCheck   bool
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVar(&stressOps, "ops", 10000, "Number of alloc/free operations")
	cmd.Flags().Int64Var(&stressSeed, "seed", 42, "Random seed")
	cmd.Flags().IntVar(&stressMaxSize, "max-size", 512, "Largest request size in bytes")
	cmd.Flags().BoolVar(&stressCheck, "check", false, "Verify allocator invariants after every operation")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress",
		Short: "Replay a seeded random alloc/free workload",
		Long: `The stress command allocates and frees blocks of random size in a
reproducible order and reports allocator statistics at the end. Payloads are
filled on allocation and verified before release, so overlapping blocks are
detected even without --check.

Example:
  pagealloc stress --ops 100000 --max-size 2048
  pagealloc stress --seed 7 --check --json
  pagealloc stress --page-limit 4 --max-size 4000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
}

// StressReport summarises a stress run.
type StressReport struct {
	Ops         int           `json:"ops"`
	Seed        int64         `json:"seed"`
	Allocs      int           `json:"allocs"`
	Frees       int           `json:"frees"`
	OutOfMemory int           `json:"out_of_memory"`
	Rejected    int           `json:"rejected"`
	Live        int           `json:"live"`
	Duration    time.Duration `json:"duration_ns"`
	Stats       alloc.Stats   `json:"stats"`
}

type stressBlock struct {
	ref  alloc.Ref
	buf  []byte
	fill byte
}

func runStress() error {
	if stressOps < 0 || stressMaxSize < 0 {
		return fmt.Errorf("--ops and --max-size must not be negative")
	}
	a, err := newAllocator()
	if err != nil {
		return err
	}
	defer a.Close()

	rep := StressReport{Ops: stressOps, Seed: stressSeed}
	rng := rand.New(rand.NewSource(stressSeed))
	var live []stressBlock
	start := time.Now()

	for i := 0; i < stressOps; i++ {
		if len(live) == 0 || rng.Intn(2) == 0 {
			size := rng.Intn(stressMaxSize + 1)
			ref, buf, err := a.Alloc(size)
			switch {
			case errors.Is(err, alloc.ErrOutOfMemory):
				rep.OutOfMemory++
				printVerbose("op %d: alloc %d: out of memory\n", i, size)
			case errors.Is(err, alloc.ErrRequestTooLarge):
				rep.Rejected++
				printVerbose("op %d: alloc %d: too large\n", i, size)
			case err != nil:
				return fmt.Errorf("op %d: alloc %d: %w", i, size, err)
			default:
				fill := byte(i) | 1
				buf = buf[:size]
				for j := range buf {
					buf[j] = fill
				}
				live = append(live, stressBlock{ref: ref, buf: buf, fill: fill})
				rep.Allocs++
			}
		} else {
			k := rng.Intn(len(live))
			b := live[k]
			for j, c := range b.buf {
				if c != b.fill {
					return fmt.Errorf("op %d: block %#x overwritten at byte %d", i, uintptr(b.ref), j)
				}
			}
			if err := a.Free(b.ref); err != nil {
				return fmt.Errorf("op %d: free %#x: %w", i, uintptr(b.ref), err)
			}
			live[k] = live[len(live)-1]
			live = live[:len(live)-1]
			rep.Frees++
		}

		if stressCheck {
			if err := a.CheckInvariants(); err != nil {
				return fmt.Errorf("op %d: %w", i, err)
			}
		}
	}

	rep.Duration = time.Since(start)
	rep.Live = len(live)
	rep.Stats = a.Stats()

	if jsonOut {
		return printJSON(rep)
	}
	printStressReport(rep)
	return nil
}

func printStressReport(rep StressReport) {
	s := rep.Stats
	printInfo("Stress run: %s ops, seed %d, %s\n", formatNumber(rep.Ops), rep.Seed, rep.Duration.Round(time.Microsecond))
	printInfo("  Allocations:   %s\n", formatNumber(rep.Allocs))
	printInfo("  Frees:         %s\n", formatNumber(rep.Frees))
	printInfo("  Live blocks:   %s\n", formatNumber(rep.Live))
	if rep.OutOfMemory > 0 || rep.Rejected > 0 {
		printInfo("  Out of memory: %s\n", formatNumber(rep.OutOfMemory))
		printInfo("  Too large:     %s\n", formatNumber(rep.Rejected))
	}
	printInfo("\nAllocator:\n")
	printInfo("  Spans:         %s (%s pages, %s)\n",
		formatNumber(s.Spans), formatNumber(s.Pages), formatBytes(int64(s.MappedBytes)))
	printInfo("  In use:        %s\n", formatBytes(int64(s.InUseBytes)))
	printInfo("  Free:          %s in %s blocks\n", formatBytes(int64(s.FreeBytes)), formatNumber(s.FreeBlocks))
	printInfo("  Splits:        %s\n", formatNumber(s.SplitCount))
	printInfo("  Coalesces:     %s forward, %s backward\n",
		formatNumber(s.CoalesceForward), formatNumber(s.CoalesceBackward))
	printInfo("  Fast/slow:     %s / %s\n", formatNumber(s.AllocFastPath), formatNumber(s.AllocSlowPath))
	printInfo("  Bytes handed:  %s\n", formatBytes(s.BytesAllocated))
}
