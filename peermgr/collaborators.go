package peermgr

import (
	"time"

	"github.com/triadag/triad/block"
	"github.com/triadag/triad/peer"
)

// DAG is the consensus/validation engine PeerManager hands admissible
// blocks to. Its internals are out of scope (spec.md §1); only the
// surface the core calls through is specified here, mirroring how
// server/p2p depends on *blockdag.BlockDAG through its public methods
// without owning it.
type DAG interface {
	// AddNewBlock submits a block released by the orphan container (or
	// received directly, if it has no missing predecessors) for
	// validation. source is nil for locally-produced blocks.
	AddNewBlock(b block.Block, source *peer.Peer) error

	// GetBestMilestoneHeight returns the height stamped into outbound
	// version handshakes.
	GetBestMilestoneHeight() uint64

	// GetMilestoneTime returns the timestamp of the current best
	// milestone, used to decide whether initial sync has completed
	// (spec.md §4.2: "bestMilestoneTime >= now - kSyncTimeThreshold").
	GetMilestoneTime() time.Time

	// IsDownloadQueueEmpty reports whether the DAG has outstanding
	// in-flight block requests, gating StartSync re-issuance.
	IsDownloadQueueEmpty() bool
}

// Mempool is the transaction pool PeerManager forwards verified
// transactions to. Out of scope beyond this surface (spec.md §1).
type Mempool interface {
	ReceiveTransaction(tx Transaction) (accepted bool, err error)
}

// Transaction is the opaque payload carried by a TX message. Scripting
// and UTXO effects are out of scope (spec.md §1); the core only needs to
// know whether a transaction verifies.
type Transaction interface {
	Verify() error
}

// TransactionDecoder turns a TX message's raw payload into a Transaction.
// Parsing the payload is the scripting engine's concern (spec.md §1); the
// core only needs a seam to reach it.
type TransactionDecoder interface {
	Decode(payload []byte) (Transaction, error)
}
