package engine_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/nexuslabs/nexus/internal/engine"
)

func newTestAllocator(t *testing.T, blockSize, numBlocks int) *engine.BlockAllocator {
	t.Helper()
	a, err := engine.NewBlockAllocator(blockSize, numBlocks)
	if err != nil {
		t.Fatalf("NewBlockAllocator: %v", err)
	}
	return a
}

func TestAllocateUntilExhausted(t *testing.T) {
	const blocks = 4
	a := newTestAllocator(t, 64, blocks)

	handles := make([]engine.Block, 0, blocks)
	for i := 0; i < blocks; i++ {
		b, ok := a.Allocate()
		if !ok {
			t.Fatalf("Allocate %d: pool exhausted early", i)
		}
		if len(b.Bytes()) != 64 {
			t.Errorf("block size = %d, want 64", len(b.Bytes()))
		}
		handles = append(handles, b)
	}

	if _, ok := a.Allocate(); ok {
		t.Error("Allocate succeeded on exhausted pool")
	}
	if got := a.FreeBlocks(); got != 0 {
		t.Errorf("FreeBlocks = %d, want 0", got)
	}
	if got := a.UtilizationPercent(); got != 100 {
		t.Errorf("UtilizationPercent = %v, want 100", got)
	}

	// Returning one block makes allocation possible again.
	if err := a.Free(handles[0]); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if _, ok := a.Allocate(); !ok {
		t.Error("Allocate failed after a block was freed")
	}
}

func TestFreeValidatesProvenance(t *testing.T) {
	a := newTestAllocator(t, 32, 2)
	other := newTestAllocator(t, 32, 2)

	b, ok := a.Allocate()
	if !ok {
		t.Fatal("Allocate failed")
	}
	foreign, ok := other.Allocate()
	if !ok {
		t.Fatal("Allocate on other pool failed")
	}

	if err := a.Free(foreign); !errors.Is(err, engine.ErrBlockNotOwned) {
		t.Errorf("Free(foreign) = %v, want ErrBlockNotOwned", err)
	}
	if err := a.Free(engine.Block{}); !errors.Is(err, engine.ErrBlockNotOwned) {
		t.Errorf("Free(zero handle) = %v, want ErrBlockNotOwned", err)
	}

	if err := a.Free(b); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if err := a.Free(b); !errors.Is(err, engine.ErrBlockFree) {
		t.Errorf("double Free = %v, want ErrBlockFree", err)
	}
}

func TestAllocatorStats(t *testing.T) {
	a := newTestAllocator(t, 16, 8)

	b1, _ := a.Allocate()
	b2, _ := a.Allocate()
	if err := a.Free(b1); err != nil {
		t.Fatalf("Free: %v", err)
	}

	stats := a.Stats()
	if stats.TotalBlocks != 8 {
		t.Errorf("TotalBlocks = %d, want 8", stats.TotalBlocks)
	}
	if stats.FreeBlocks != 7 {
		t.Errorf("FreeBlocks = %d, want 7", stats.FreeBlocks)
	}
	if stats.AllocatedBlocks != 1 {
		t.Errorf("AllocatedBlocks = %d, want 1", stats.AllocatedBlocks)
	}
	if stats.TotalAllocations != 2 {
		t.Errorf("TotalAllocations = %d, want 2", stats.TotalAllocations)
	}
	if stats.TotalDeallocations != 1 {
		t.Errorf("TotalDeallocations = %d, want 1", stats.TotalDeallocations)
	}
	if err := a.Free(b2); err != nil {
		t.Fatalf("Free: %v", err)
	}
}

func TestZeroBlockPool(t *testing.T) {
	a := newTestAllocator(t, 0, 0)
	if _, ok := a.Allocate(); ok {
		t.Error("Allocate on empty pool succeeded")
	}
	if got := a.UtilizationPercent(); got != 0 {
		t.Errorf("UtilizationPercent = %v, want 0", got)
	}
}

// TestConcurrentAllocateClaimsDistinctBlocks hammers Allocate from many
// goroutines and verifies no two claims alias the same buffer.
func TestConcurrentAllocateClaimsDistinctBlocks(t *testing.T) {
	const blocks = 32
	a := newTestAllocator(t, 8, blocks)

	var mu sync.Mutex
	claimed := make([]engine.Block, 0, blocks)
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				b, ok := a.Allocate()
				if !ok {
					return
				}
				mu.Lock()
				claimed = append(claimed, b)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(claimed) != blocks {
		t.Fatalf("claimed %d blocks, want %d", len(claimed), blocks)
	}
	seen := make(map[*byte]bool, blocks)
	for _, b := range claimed {
		p := &b.Bytes()[0]
		if seen[p] {
			t.Fatal("two handles alias the same block")
		}
		seen[p] = true
	}
	for _, b := range claimed {
		if err := a.Free(b); err != nil {
			t.Fatalf("Free: %v", err)
		}
	}
	if got := a.FreeBlocks(); got != blocks {
		t.Errorf("FreeBlocks after release = %d, want %d", got, blocks)
	}
}
