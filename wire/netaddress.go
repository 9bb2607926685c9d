// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"
	"net"
	"time"

	"github.com/triadag/triad/util/mstime"
)

// NetAddress describes a peer endpoint as carried on the wire: when it was
// last seen, its IP, and its port.
type NetAddress struct {
	Timestamp time.Time
	IP        net.IP
	Port      uint16
}

// NewNetAddressIPPort builds a NetAddress with the current time.
func NewNetAddressIPPort(ip net.IP, port uint16) *NetAddress {
	return &NetAddress{Timestamp: mstime.Now(), IP: ip, Port: port}
}

func writeNetAddress(w io.Writer, na *NetAddress) error {
	if err := writeUint64(w, uint64(mstime.TimeToUnixMilli(na.Timestamp))); err != nil {
		return err
	}
	var ip [16]byte
	if na.IP != nil {
		copy(ip[:], na.IP.To16())
	}
	if _, err := w.Write(ip[:]); err != nil {
		return err
	}
	return writeUint32(w, uint32(na.Port))
}

func readNetAddress(r io.Reader, na *NetAddress) error {
	ms, err := readUint64(r)
	if err != nil {
		return err
	}
	na.Timestamp = mstime.UnixMilliToTime(int64(ms))

	var ip [16]byte
	if _, err := io.ReadFull(r, ip[:]); err != nil {
		return err
	}
	na.IP = net.IP(ip[:])

	port, err := readUint32(r)
	if err != nil {
		return err
	}
	na.Port = uint16(port)
	return nil
}
