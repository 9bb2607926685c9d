// Package obc implements the Orphan Block Container: it holds blocks whose
// predecessors are not yet known locally and releases them, transitively,
// as their missing predecessor hashes are submitted.
//
// Grounded on original_source/src/storage/obc.cpp (OrphanBlocksContainer).
package obc

import (
	"sync"

	"github.com/triadag/triad/block"
	"github.com/triadag/triad/daghash"
)

// MissingMask is a bitset over which of a block's three declared parents
// are not yet present locally.
type MissingMask uint8

// Bits of MissingMask.
const (
	MMissing MissingMask = 1 << iota
	TMissing
	PMissing
)

// orphanDep is one block whose arrival is blocked on 1-3 predecessor
// hashes. It is uniquely keyed by its block's hash.
type orphanDep struct {
	block block.Block
	// ndeps is the count of still-missing distinct predecessor hashes.
	// Like deps, it is only read or written with Container.mu held.
	ndeps int
	// deps are orphanDeps that depend on this block's hash becoming
	// available.
	deps []*orphanDep
}

// Container tracks orphaned blocks and releases them as their
// dependencies resolve. The zero value is not usable; use New.
type Container struct {
	mu sync.RWMutex

	// blockDepMap maps a block's own hash to its orphanDep, for every
	// block currently missing at least one predecessor.
	blockDepMap map[daghash.Hash]*orphanDep

	// loseEnds maps a predecessor hash that is NOT itself a key of
	// blockDepMap to the set of orphanDeps waiting on it.
	loseEnds map[daghash.Hash]map[*orphanDep]struct{}
}

// New creates an empty Container.
func New() *Container {
	return &Container{
		blockDepMap: make(map[daghash.Hash]*orphanDep),
		loseEnds:    make(map[daghash.Hash]map[*orphanDep]struct{}),
	}
}

// Size returns the number of orphaned blocks currently held.
func (c *Container) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blockDepMap)
}

// DependencySize returns the number of distinct lose-end hashes currently
// being waited on.
func (c *Container) DependencySize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.loseEnds)
}

// IsEmpty reports whether the container currently holds no orphans.
func (c *Container) IsEmpty() bool {
	return c.Size() == 0
}

// Contains reports whether a block with the given hash is currently
// orphaned.
func (c *Container) Contains(hash daghash.Hash) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.blockDepMap[hash]
	return ok
}

// AddBlock registers b as orphaned, missing the predecessors named by
// mask. It is a no-op if mask is zero. If b's hash is already a key of the
// container, the prior entry is replaced (the caller is expected to have
// already deduplicated against Contains).
func (c *Container) AddBlock(b block.Block, mask MissingMask) {
	if mask == 0 {
		return
	}

	dep := &orphanDep{block: b}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Deduplicate parent hashes before counting: a block may legally
	// carry two identical parent fields, and ndeps must reflect
	// distinct hashes only.
	seen := make(map[daghash.Hash]struct{}, 3)
	link := func(parent *daghash.Hash) {
		if parent == nil {
			return
		}
		if _, dup := seen[*parent]; dup {
			return
		}
		seen[*parent] = struct{}{}

		if parentDep, ok := c.blockDepMap[*parent]; ok {
			parentDep.deps = append(parentDep.deps, dep)
			return
		}
		waiters, ok := c.loseEnds[*parent]
		if !ok {
			waiters = make(map[*orphanDep]struct{})
			c.loseEnds[*parent] = waiters
		}
		waiters[dep] = struct{}{}
	}

	if mask&MMissing != 0 {
		link(b.MilestoneHash())
	}
	if mask&TMissing != 0 {
		link(b.TipHash())
	}
	if mask&PMissing != 0 {
		link(b.PrevHash())
	}

	dep.ndeps = len(seen)
	c.blockDepMap[*b.Hash()] = dep

	// Orphans already waiting on this block's hash now wait on its entry
	// instead: a hash stays a lose end only while it is not itself orphaned.
	if waiters, ok := c.loseEnds[*b.Hash()]; ok {
		for w := range waiters {
			dep.deps = append(dep.deps, w)
		}
		delete(c.loseEnds, *b.Hash())
	}
}

// SubmitHash notifies the container that hash is now available locally.
// It returns every block that becomes fully available as a result,
// including transitively through blocks that were themselves released by
// this same call. The returned order is unconstrained; it is the DAG
// engine's job to re-establish any ordering it needs. SubmitHash is a
// no-op, returning nil, if hash ties no lose ends.
func (c *Container) SubmitHash(hash daghash.Hash) []block.Block {
	c.mu.Lock()
	defer c.mu.Unlock()

	waiters, ok := c.loseEnds[hash]
	if !ok {
		return nil
	}
	delete(c.loseEnds, hash)

	stack := make([]*orphanDep, 0, len(waiters))
	for dep := range waiters {
		stack = append(stack, dep)
	}

	var released []block.Block
	for len(stack) > 0 {
		n := len(stack) - 1
		dep := stack[n]
		stack = stack[:n]

		dep.ndeps--
		if dep.ndeps > 0 {
			continue
		}

		released = append(released, dep.block)
		delete(c.blockDepMap, *dep.block.Hash())

		stack = append(stack, dep.deps...)
	}

	return released
}
