package obc

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/triadag/triad/block"
	"github.com/triadag/triad/daghash"
)

func hashFromByte(b byte) daghash.Hash {
	var h daghash.Hash
	h[0] = b
	return h
}

func newTestBlock(self, ms, tip, prev byte) block.Block {
	return block.NewHeader(hashFromByte(self), hashFromByte(ms), hashFromByte(tip), hashFromByte(prev), time.Time{})
}

// TestOrphanCascade is Scenario E: C depends on B, B depends on A.
// AddBlock(C, missing=prev(B)); AddBlock(B, missing=prev(A)).
// SubmitHash(A) must return {B, C} in some order.
func TestOrphanCascade(t *testing.T) {
	c := New()

	a := hashFromByte(0xA)
	blockB := newTestBlock(0xB, 0xB, 0xB, 0xA)
	blockC := newTestBlock(0xC, 0xC, 0xC, 0xB)

	c.AddBlock(blockB, PMissing)
	c.AddBlock(blockC, PMissing)

	if !c.Contains(*blockB.Hash()) || !c.Contains(*blockC.Hash()) {
		t.Fatal("expected both B and C to be tracked as orphans")
	}

	released := c.SubmitHash(a)
	if len(released) != 2 {
		t.Fatalf("expected 2 released blocks, got %d", len(released))
	}

	seen := map[daghash.Hash]bool{}
	for _, b := range released {
		seen[*b.Hash()] = true
	}
	if !seen[*blockB.Hash()] || !seen[*blockC.Hash()] {
		t.Fatalf("expected B and C released, got %v", released)
	}

	if !c.IsEmpty() {
		t.Fatalf("expected container empty after full cascade, size=%d", c.Size())
	}
}

// TestSubmitHashNoLoseEnd is property 4: SubmitHash(h) where h has no lose
// ends is a no-op returning empty.
func TestSubmitHashNoLoseEnd(t *testing.T) {
	c := New()
	if released := c.SubmitHash(hashFromByte(0x99)); released != nil {
		t.Fatalf("expected nil, got %v", released)
	}
}

// TestAddBlockZeroMaskNoop checks AddBlock is a no-op when mask is zero.
func TestAddBlockZeroMaskNoop(t *testing.T) {
	c := New()
	b := newTestBlock(0x01, 0x02, 0x03, 0x04)
	c.AddBlock(b, 0)
	if c.Size() != 0 {
		t.Fatalf("expected no orphan added for zero mask, size=%d", c.Size())
	}
}

// TestDuplicateParentHashesCountedOnce verifies that identical parent
// fields collapse to a single dependency.
func TestDuplicateParentHashesCountedOnce(t *testing.T) {
	c := New()
	same := hashFromByte(0x42)
	b := block.NewHeader(hashFromByte(0x01), same, same, same, time.Time{})

	// All three parents are the same missing hash; ndeps should become 1,
	// so submitting it once fully releases the block.
	c.AddBlock(b, MMissing|TMissing|PMissing)
	released := c.SubmitHash(same)
	if len(released) != 1 {
		t.Fatalf("expected exactly 1 release from a single distinct dependency, got %d", len(released))
	}
}

// TestPartialDependenciesWithholdRelease ensures a block with 2 distinct
// missing parents is not released until both arrive.
func TestPartialDependenciesWithholdRelease(t *testing.T) {
	c := New()
	b := newTestBlock(0x10, 0x20, 0x30, 0x20) // ms == prev, tip distinct
	c.AddBlock(b, MMissing|TMissing|PMissing)

	if released := c.SubmitHash(hashFromByte(0x20)); released != nil {
		t.Fatalf("expected no release after only one of two distinct deps resolved, got %v", released)
	}
	released := c.SubmitHash(hashFromByte(0x30))
	if len(released) != 1 {
		t.Fatalf("expected release after final dependency resolved, got %d", len(released))
	}
}

// TestNoDoubleRelease is property 2: no block is ever returned twice, even
// across unrelated SubmitHash calls touching shared structure.
func TestNoDoubleRelease(t *testing.T) {
	c := New()
	b := newTestBlock(0x01, 0x02, 0x02, 0x02)
	c.AddBlock(b, MMissing|TMissing|PMissing)

	first := c.SubmitHash(hashFromByte(0x02))
	if len(first) != 1 {
		t.Fatalf("expected 1 release, got %d", len(first))
	}
	second := c.SubmitHash(hashFromByte(0x02))
	if second != nil {
		t.Fatalf("expected no further release on repeated submit, got %v", second)
	}
}

// TestConcurrentAddAndSubmit adds a chain DAG from many goroutines at
// once, then drains it with a single SubmitHash of the root, and checks
// every block is released exactly once (property 2, with concurrent
// AddBlock calls).
func TestConcurrentAddAndSubmit(t *testing.T) {
	const n = 2000
	c := New()

	// Build a simple chain: block i's prev parent is block i-1; block 0's
	// prev parent is the external root hash, which no chain block's own
	// hash (bytes i&0xff, i>>8) can equal.
	root := daghash.Hash{0xFF, 0xFF}
	blocks := make([]block.Block, n)
	for i := 0; i < n; i++ {
		var prev daghash.Hash
		if i == 0 {
			prev = root
		} else {
			prev = *blocks[i-1].Hash()
		}
		h := daghash.Hash{}
		h[0] = byte(i)
		h[1] = byte(i >> 8)
		blocks[i] = block.NewHeader(h, h, h, prev, time.Time{})
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.AddBlock(blocks[i], PMissing)
		}(i)
	}
	wg.Wait()

	var mu sync.Mutex
	releasedCount := map[daghash.Hash]int{}
	var releaseWG sync.WaitGroup
	releaseWG.Add(1)
	go func() {
		defer releaseWG.Done()
		for _, b := range c.SubmitHash(root) {
			mu.Lock()
			releasedCount[*b.Hash()]++
			mu.Unlock()
		}
	}()
	releaseWG.Wait()

	if !c.IsEmpty() {
		t.Fatalf("expected container drained, size=%d", c.Size())
	}
	for i, b := range blocks {
		if releasedCount[*b.Hash()] != 1 {
			t.Fatalf("block %d released %d times, want 1", i, releasedCount[*b.Hash()])
		}
	}
}

func ExampleContainer_SubmitHash() {
	c := New()
	b := newTestBlock(0x01, 0x02, 0x02, 0x02)
	c.AddBlock(b, MMissing|TMissing|PMissing)
	released := c.SubmitHash(hashFromByte(0x02))
	fmt.Println(len(released))
	// Output: 1
}
