// Package block defines the minimal surface of a DAG block that the
// networking core needs. Block content, validation, and serialization
// beyond the three parent hashes are the concern of the DAG/consensus
// engine, which is out of scope for this package.
package block

import (
	"time"

	"github.com/triadag/triad/daghash"
)

// Block is the narrow view of a DAG block the core operates on: its own
// hash and its three parent hashes (milestone, tip, previous).
type Block interface {
	Hash() *daghash.Hash
	MilestoneHash() *daghash.Hash
	TipHash() *daghash.Hash
	PrevHash() *daghash.Hash
	Timestamp() time.Time
}

// Header is a concrete Block implementation carrying only the four hashes
// and a timestamp. It is sufficient for admission and relay; the DAG
// engine is expected to look up full block content by hash once a block
// is released from the orphan container.
type Header struct {
	hash      daghash.Hash
	msHash    daghash.Hash
	tipHash   daghash.Hash
	prevHash  daghash.Hash
	timestamp time.Time
}

// NewHeader builds a Header from its four hashes and timestamp.
func NewHeader(hash, msHash, tipHash, prevHash daghash.Hash, timestamp time.Time) *Header {
	return &Header{
		hash:      hash,
		msHash:    msHash,
		tipHash:   tipHash,
		prevHash:  prevHash,
		timestamp: timestamp,
	}
}

// Hash returns the block's own hash.
func (h *Header) Hash() *daghash.Hash { return &h.hash }

// MilestoneHash returns the milestone parent hash.
func (h *Header) MilestoneHash() *daghash.Hash { return &h.msHash }

// TipHash returns the tip parent hash.
func (h *Header) TipHash() *daghash.Hash { return &h.tipHash }

// PrevHash returns the previous parent hash.
func (h *Header) PrevHash() *daghash.Hash { return &h.prevHash }

// Timestamp returns the block's creation time.
func (h *Header) Timestamp() time.Time { return h.timestamp }
