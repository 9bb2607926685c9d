// Package localdag is a minimal stand-in for the DAG/Mempool collaborators
// peermgr depends on through narrow interfaces (spec.md §1, §6 place
// block/transaction validation and persistence out of scope). It keeps
// just enough state — the orphan container, a milestone clock, and a
// mempool that accepts every transaction that verifies — to let cmd/triad run as a real standalone
// node without pulling in consensus code.
//
// Grounded on obc.Container for orphan bookkeeping; the milestone/mempool
// logic here has no teacher analogue because the teacher's blockdag and
// mempool packages are exactly what spec.md excludes.
package localdag

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/triadag/triad/block"
	"github.com/triadag/triad/daghash"
	"github.com/triadag/triad/obc"
	"github.com/triadag/triad/peer"
	"github.com/triadag/triad/peermgr"
)

var errEmptyPayload = errors.New("empty transaction payload")

// DAG is a trivial collaborator implementation: it accepts every
// non-orphan block unconditionally and tracks the latest timestamp among
// accepted blocks as the "milestone" time for sync-threshold purposes.
type DAG struct {
	orphans *obc.Container

	mu            sync.RWMutex
	bestHeight    uint64
	milestoneTime time.Time
	knownHashes   map[daghash.Hash]struct{}
}

// New creates a DAG seeded with a single genesis-like known hash so the
// first real block's PrevHash can resolve immediately.
func New(genesis daghash.Hash) *DAG {
	return &DAG{
		orphans:       obc.New(),
		milestoneTime: time.Now(),
		knownHashes:   map[daghash.Hash]struct{}{genesis: {}},
	}
}

// AddNewBlock accepts b if its declared predecessors are already known;
// otherwise it defers to the orphan container until they arrive.
func (d *DAG) AddNewBlock(b block.Block, source *peer.Peer) error {
	mask := d.missingMask(b)
	if mask != 0 {
		d.orphans.AddBlock(b, mask)
		return nil
	}
	d.accept(b)
	for _, released := range d.orphans.SubmitHash(*b.Hash()) {
		d.accept(released)
	}
	return nil
}

func (d *DAG) missingMask(b block.Block) obc.MissingMask {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var mask obc.MissingMask
	if _, ok := d.knownHashes[*b.MilestoneHash()]; !ok {
		mask |= obc.MMissing
	}
	if _, ok := d.knownHashes[*b.TipHash()]; !ok {
		mask |= obc.TMissing
	}
	if _, ok := d.knownHashes[*b.PrevHash()]; !ok {
		mask |= obc.PMissing
	}
	return mask
}

func (d *DAG) accept(b block.Block) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.knownHashes[*b.Hash()] = struct{}{}
	d.bestHeight++
	if b.Timestamp().After(d.milestoneTime) {
		d.milestoneTime = b.Timestamp()
	}
}

// GetBestMilestoneHeight returns the number of blocks accepted so far.
func (d *DAG) GetBestMilestoneHeight() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.bestHeight
}

// GetMilestoneTime returns the latest timestamp among accepted blocks, or
// the DAG's creation time if no accepted block is later than that. Used by
// PeerManager to decide whether initial sync is needed.
func (d *DAG) GetMilestoneTime() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.milestoneTime
}

// IsDownloadQueueEmpty always reports true: this stub has no persistent
// block-download queue of its own, only the in-memory orphan container.
func (d *DAG) IsDownloadQueueEmpty() bool {
	return true
}

// Mempool accepts every transaction that verifies; real admission policy
// (fees, double-spend checks) is out of scope per spec.md §1.
type Mempool struct{}

// NewMempool creates a Mempool.
func NewMempool() *Mempool {
	return &Mempool{}
}

// ReceiveTransaction accepts tx if tx.Verify succeeds, and otherwise
// rejects it, returning the verification error.
func (m *Mempool) ReceiveTransaction(tx peermgr.Transaction) (bool, error) {
	if err := tx.Verify(); err != nil {
		return false, err
	}
	return true, nil
}

// Transaction is the trivial Transaction implementation this stub hands
// back from Decode: a raw payload that verifies as long as it is
// non-empty. Real script/UTXO verification is out of scope (spec.md §1).
type Transaction struct {
	Payload []byte
}

// Verify rejects only the degenerate empty-payload case.
func (t *Transaction) Verify() error {
	if len(t.Payload) == 0 {
		return errEmptyPayload
	}
	return nil
}

// TransactionDecoder wraps raw TX payloads into Transaction values,
// satisfying peermgr.TransactionDecoder so cmd/triad can exercise the
// TX/mempool/relay path end to end without a real script engine.
type TransactionDecoder struct{}

// NewTransactionDecoder creates a TransactionDecoder.
func NewTransactionDecoder() *TransactionDecoder {
	return &TransactionDecoder{}
}

// Decode wraps payload in a Transaction.
func (TransactionDecoder) Decode(payload []byte) (peermgr.Transaction, error) {
	return &Transaction{Payload: payload}, nil
}
