package engine

import "sync/atomic"

// BlockAllocator lends fixed-size scratch buffers from a pool allocated once
// at construction. Allocate and Free never touch the general allocator; the
// pool never grows. A linear scan claims a block with a per-block
// compare-and-swap, so two goroutines can never claim the same block, and
// the free count is a separate fast-path gate.
type BlockAllocator struct {
	blockSize int
	backing   []byte
	blocks    []blockSlot

	freeCount     atomic.Int64
	allocations   atomic.Uint64
	deallocations atomic.Uint64
}

type blockSlot struct {
	inUse atomic.Uint32
}

// Block is a handle to a leased buffer. Handles must be returned to the
// allocator that issued them exactly once; Free validates provenance and
// rejects double frees.
type Block struct {
	owner *BlockAllocator
	idx   int
	buf   []byte
}

// Bytes returns the leased buffer. The caller owns it exclusively until
// Free.
func (b Block) Bytes() []byte { return b.buf }

// AllocStats is an eventually-consistent view of pool usage.
type AllocStats struct {
	TotalBlocks        int    `json:"total_blocks"`
	FreeBlocks         int    `json:"free_blocks"`
	AllocatedBlocks    int    `json:"allocated_blocks"`
	TotalAllocations   uint64 `json:"total_allocations"`
	TotalDeallocations uint64 `json:"total_deallocations"`
}

// NewBlockAllocator pre-allocates numBlocks buffers of blockSize bytes as a
// single backing slab. numBlocks of zero yields an always-exhausted pool.
func NewBlockAllocator(blockSize, numBlocks int) (*BlockAllocator, error) {
	if numBlocks < 0 {
		return nil, &ConfigError{Field: "block_count", Reason: "must not be negative"}
	}
	if numBlocks > 0 && blockSize < 1 {
		return nil, &ConfigError{Field: "block_size", Reason: "must be positive when block_count > 0"}
	}
	a := &BlockAllocator{
		blockSize: blockSize,
		backing:   make([]byte, blockSize*numBlocks),
		blocks:    make([]blockSlot, numBlocks),
	}
	a.freeCount.Store(int64(numBlocks))
	return a, nil
}

// Allocate claims a free block in O(pool) time, returning false when the
// pool is exhausted. It never blocks and never grows the pool.
func (a *BlockAllocator) Allocate() (Block, bool) {
	if a.freeCount.Load() <= 0 {
		return Block{}, false
	}
	for i := range a.blocks {
		s := &a.blocks[i]
		if s.inUse.Load() == 0 && s.inUse.CompareAndSwap(0, 1) {
			a.freeCount.Add(-1)
			a.allocations.Add(1)
			off := i * a.blockSize
			return Block{owner: a, idx: i, buf: a.backing[off : off+a.blockSize : off+a.blockSize]}, true
		}
	}
	return Block{}, false
}

// Free returns a block to the pool. Freeing a handle from another allocator
// yields ErrBlockNotOwned; freeing twice yields ErrBlockFree.
func (a *BlockAllocator) Free(b Block) error {
	if b.owner != a || b.idx < 0 || b.idx >= len(a.blocks) {
		return ErrBlockNotOwned
	}
	if !a.blocks[b.idx].inUse.CompareAndSwap(1, 0) {
		return ErrBlockFree
	}
	a.freeCount.Add(1)
	a.deallocations.Add(1)
	return nil
}

// BlockSize returns the size of each block in bytes.
func (a *BlockAllocator) BlockSize() int { return a.blockSize }

// TotalBlocks returns the fixed pool size.
func (a *BlockAllocator) TotalBlocks() int { return len(a.blocks) }

// FreeBlocks returns the approximate number of unclaimed blocks.
func (a *BlockAllocator) FreeBlocks() int {
	n := a.freeCount.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// UtilizationPercent returns the share of blocks currently claimed, 0-100.
func (a *BlockAllocator) UtilizationPercent() float64 {
	total := len(a.blocks)
	if total == 0 {
		return 0
	}
	return float64(total-a.FreeBlocks()) / float64(total) * 100
}

// Stats returns an eventually-consistent usage snapshot.
func (a *BlockAllocator) Stats() AllocStats {
	free := a.FreeBlocks()
	return AllocStats{
		TotalBlocks:        len(a.blocks),
		FreeBlocks:         free,
		AllocatedBlocks:    len(a.blocks) - free,
		TotalAllocations:   a.allocations.Load(),
		TotalDeallocations: a.deallocations.Load(),
	}
}
