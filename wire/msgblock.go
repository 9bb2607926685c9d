// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"

	"github.com/triadag/triad/daghash"
)

// MsgBlock carries a block's identifying hashes. Full block content
// (transactions, proof-of-work fields, etc.) is the DAG engine's concern
// and out of scope for this core (spec.md §1); the core only ever needs
// the four hashes to decide admission.
type MsgBlock struct {
	Hash          daghash.Hash
	MilestoneHash daghash.Hash
	TipHash       daghash.Hash
	PrevHash      daghash.Hash
	Timestamp     uint64
}

// Command returns the message command string.
func (m *MsgBlock) Command() string { return CmdBlock }

// Encode serializes the message.
func (m *MsgBlock) Encode(w io.Writer) error {
	for _, h := range []daghash.Hash{m.Hash, m.MilestoneHash, m.TipHash, m.PrevHash} {
		if _, err := w.Write(h[:]); err != nil {
			return err
		}
	}
	return writeUint64(w, m.Timestamp)
}

// Decode deserializes the message.
func (m *MsgBlock) Decode(r io.Reader) error {
	for _, h := range []*daghash.Hash{&m.Hash, &m.MilestoneHash, &m.TipHash, &m.PrevHash} {
		if _, err := io.ReadFull(r, h[:]); err != nil {
			return err
		}
	}
	ts, err := readUint64(r)
	if err != nil {
		return err
	}
	m.Timestamp = ts
	return nil
}

// MsgTx carries a transaction's raw, opaque payload. Transaction content
// interpretation (scripting, UTXO effects) is out of scope (spec.md §1);
// the core only hands the payload to the Transaction.Verify collaborator.
type MsgTx struct {
	Payload []byte
}

// Command returns the message command string.
func (m *MsgTx) Command() string { return CmdTx }

// Encode serializes the message.
func (m *MsgTx) Encode(w io.Writer) error { return writeVarBytes(w, m.Payload) }

// Decode deserializes the message.
func (m *MsgTx) Decode(r io.Reader) error {
	p, err := readVarBytes(r)
	if err != nil {
		return err
	}
	m.Payload = p
	return nil
}
