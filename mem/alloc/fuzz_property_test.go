package alloc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type liveBlock struct {
	ref  Ref
	buf  []byte
	size int
	fill byte
}

// Test_Fuzz_RandomAllocFree_Invariants runs a seeded alloc/free workload and
// checks metadata and payload contents after every step.
func Test_Fuzz_RandomAllocFree_Invariants(t *testing.T) {
	for _, cfg := range []Config{ConfigCompact, ConfigReference} {
		t.Run(cfg.Name, func(t *testing.T) {
			a := newTestAllocator(t, WithConfig(cfg))
			rng := rand.New(rand.NewSource(42)) // Fixed seed for reproducibility
			maxSize := cfg.MaxRequest()
			if maxSize > 6000 {
				maxSize = 6000
			}

			var live []liveBlock
			for i := 0; i < 2000; i++ {
				if len(live) == 0 || rng.Intn(5) < 3 {
					size := rng.Intn(maxSize + 1)
					ref, buf, err := a.Alloc(size)
					require.NoError(t, err, "step %d: alloc %d", i, size)
					fill := byte(i)
					for j := 0; j < size; j++ {
						buf[j] = fill
					}
					live = append(live, liveBlock{ref: ref, buf: buf, size: size, fill: fill})
				} else {
					k := rng.Intn(len(live))
					lb := live[k]
					for j := 0; j < lb.size; j++ {
						require.Equal(t, lb.fill, lb.buf[j], "step %d: block %#x overwritten at %d", i, uintptr(lb.ref), j)
					}
					require.NoError(t, a.Free(lb.ref), "step %d", i)
					live[k] = live[len(live)-1]
					live = live[:len(live)-1]
				}
				require.NoError(t, a.CheckInvariants(), "step %d", i)
			}

			for _, lb := range live {
				require.NoError(t, a.Free(lb.ref))
			}
			stats := a.Stats()
			assert.Equal(t, stats.MappedBytes, stats.FreeBytes)
			assert.Equal(t, stats.Spans, stats.FreeBlocks, "every span collapses to one block")
			assert.Zero(t, stats.AllocatedBlocks)
			assertInvariants(t, a)
		})
	}
}

// TestRoundTripRestoresFreeCapacity verifies alloc+free of any size leaves
// free capacity where it was, plus whatever spans the allocation mapped.
func TestRoundTripRestoresFreeCapacity(t *testing.T) {
	sizes := []int{0, 1, 15, 16, 17, 100, 1000, 2000, 4000, 4048, 4049, 10000, 100000}
	for _, size := range sizes {
		a := newTestAllocator(t)
		before := a.Stats()

		ref, _, err := a.Alloc(size)
		require.NoError(t, err, "size %d", size)
		require.NoError(t, a.Free(ref), "size %d", size)

		after := a.Stats()
		grown := after.MappedBytes - before.MappedBytes
		assert.Equal(t, before.FreeBytes+grown, after.FreeBytes, "size %d", size)
		if size <= 4096-HeaderSize {
			assert.Zero(t, grown, "size %d fits the first page", size)
		}
		assertInvariants(t, a)
	}
}

// TestSteadyStateDoesNotGrow verifies a repeating workload stops mapping
// pages once its working set is resident.
func TestSteadyStateDoesNotGrow(t *testing.T) {
	a := newTestAllocator(t)
	round := func() {
		refs := make([]Ref, 0, 32)
		for i := 0; i < 32; i++ {
			refs = append(refs, mustAlloc(t, a, 24+i*40))
		}
		for _, ref := range refs {
			require.NoError(t, a.Free(ref))
		}
	}

	round()
	pages := a.Stats().Pages
	for i := 0; i < 10; i++ {
		round()
	}
	assert.Equal(t, pages, a.Stats().Pages)
	assertInvariants(t, a)
}
