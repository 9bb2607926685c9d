package wire

import (
	"net"
	"testing"
	"time"
)

func TestMessageRoundTrip(t *testing.T) {
	addr := NewNetAddressIPPort(net.ParseIP("203.0.113.7"), 16111)
	addr.Timestamp = addr.Timestamp.Truncate(time.Millisecond)

	orig := &MsgAddr{AddrList: []*NetAddress{addr}}

	w := &bytesWriter{}
	if err := WriteMessage(w, orig); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	decoded, err := ReadMessage(&bytesReader{buf: w.buf})
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	got, ok := decoded.(*MsgAddr)
	if !ok {
		t.Fatalf("expected *MsgAddr, got %T", decoded)
	}
	if len(got.AddrList) != 1 {
		t.Fatalf("expected 1 address, got %d", len(got.AddrList))
	}
	if !got.AddrList[0].IP.Equal(addr.IP) || got.AddrList[0].Port != addr.Port {
		t.Errorf("address mismatch: got %+v, want %+v", got.AddrList[0], addr)
	}
}

func TestReadMessageUnknownCommand(t *testing.T) {
	w := &bytesWriter{}
	if err := writeString(w, "bogus"); err != nil {
		t.Fatal(err)
	}
	if err := writeVarBytes(w, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadMessage(&bytesReader{buf: w.buf}); err == nil {
		t.Error("expected error for unrecognized command")
	}
}

func TestReadVarBytesRejectsOversizedPayload(t *testing.T) {
	w := &bytesWriter{}
	if err := writeUint32(w, MaxMessagePayload+1); err != nil {
		t.Fatal(err)
	}
	if _, err := readVarBytes(&bytesReader{buf: w.buf}); err == nil {
		t.Error("expected error for oversized payload length")
	}
}
