// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// MsgAddr relays a list of known peer addresses (spec.md §6). The core
// drops the whole message if len(AddrList) exceeds kMaxAddressSize
// (spec.md §4.2); that policy lives in peermgr, not here.
type MsgAddr struct {
	AddrList []*NetAddress
}

// Command returns the message command string.
func (m *MsgAddr) Command() string { return CmdAddr }

// Encode serializes the message.
func (m *MsgAddr) Encode(w io.Writer) error {
	if err := writeUint32(w, uint32(len(m.AddrList))); err != nil {
		return err
	}
	for _, na := range m.AddrList {
		if err := writeNetAddress(w, na); err != nil {
			return err
		}
	}
	return nil
}

// Decode deserializes the message.
func (m *MsgAddr) Decode(r io.Reader) error {
	count, err := readUint32(r)
	if err != nil {
		return err
	}
	m.AddrList = make([]*NetAddress, count)
	for i := range m.AddrList {
		na := &NetAddress{}
		if err := readNetAddress(r, na); err != nil {
			return err
		}
		m.AddrList[i] = na
	}
	return nil
}

// AddAddress appends addr to the message's address list.
func (m *MsgAddr) AddAddress(addr *NetAddress) {
	m.AddrList = append(m.AddrList, addr)
}

// MsgGetAddr requests the recipient's known addresses.
type MsgGetAddr struct{}

// Command returns the message command string.
func (m *MsgGetAddr) Command() string { return CmdGetAddr }

// Encode serializes the message (it carries no payload).
func (m *MsgGetAddr) Encode(w io.Writer) error { return nil }

// Decode deserializes the message (it carries no payload).
func (m *MsgGetAddr) Decode(r io.Reader) error { return nil }
