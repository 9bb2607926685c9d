// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// MsgPing is a liveness probe; the recipient replies with MsgPong carrying
// the same nonce.
type MsgPing struct {
	Nonce uint64
}

// Command returns the message command string.
func (m *MsgPing) Command() string { return CmdPing }

// Encode serializes the message.
func (m *MsgPing) Encode(w io.Writer) error { return writeUint64(w, m.Nonce) }

// Decode deserializes the message.
func (m *MsgPing) Decode(r io.Reader) error {
	n, err := readUint64(r)
	if err != nil {
		return err
	}
	m.Nonce = n
	return nil
}

// MsgPong answers a MsgPing.
type MsgPong struct {
	Nonce uint64
}

// Command returns the message command string.
func (m *MsgPong) Command() string { return CmdPong }

// Encode serializes the message.
func (m *MsgPong) Encode(w io.Writer) error { return writeUint64(w, m.Nonce) }

// Decode deserializes the message.
func (m *MsgPong) Decode(r io.Reader) error {
	n, err := readUint64(r)
	if err != nil {
		return err
	}
	m.Nonce = n
	return nil
}
