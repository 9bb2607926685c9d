// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// ProtocolVersion is the version of the wire protocol this node speaks.
const ProtocolVersion uint32 = 1

// MsgVersion is the first message exchanged between two peers (spec.md
// §4.2, handshake). AddrMe is the sender's self-reported address, used
// (advisorily, per spec.md §9) by PeerManager.HasConnectedTo.
type MsgVersion struct {
	ProtocolVersion   uint32
	BestMilestoneHeight uint64
	Nonce             uint64
	AddrMe            NetAddress
	IsSyncAvailable   bool
}

// Command returns the message command string.
func (m *MsgVersion) Command() string { return CmdVersion }

// Encode serializes the message.
func (m *MsgVersion) Encode(w io.Writer) error {
	if err := writeUint32(w, m.ProtocolVersion); err != nil {
		return err
	}
	if err := writeUint64(w, m.BestMilestoneHeight); err != nil {
		return err
	}
	if err := writeUint64(w, m.Nonce); err != nil {
		return err
	}
	if err := writeNetAddress(w, &m.AddrMe); err != nil {
		return err
	}
	var sync byte
	if m.IsSyncAvailable {
		sync = 1
	}
	_, err := w.Write([]byte{sync})
	return err
}

// Decode deserializes the message.
func (m *MsgVersion) Decode(r io.Reader) error {
	var err error
	if m.ProtocolVersion, err = readUint32(r); err != nil {
		return err
	}
	if m.BestMilestoneHeight, err = readUint64(r); err != nil {
		return err
	}
	if m.Nonce, err = readUint64(r); err != nil {
		return err
	}
	if err := readNetAddress(r, &m.AddrMe); err != nil {
		return err
	}
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	m.IsSyncAvailable = buf[0] != 0
	return nil
}

// MsgVerAck acknowledges a received MsgVersion, completing the handshake.
type MsgVerAck struct{}

// Command returns the message command string.
func (m *MsgVerAck) Command() string { return CmdVerAck }

// Encode serializes the message (it carries no payload).
func (m *MsgVerAck) Encode(w io.Writer) error { return nil }

// Decode deserializes the message (it carries no payload).
func (m *MsgVerAck) Decode(r io.Reader) error { return nil }
