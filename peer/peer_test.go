package peer

import (
	"net"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/triadag/triad/addrbook"
	"github.com/triadag/triad/wire"
)

type fakeSender struct {
	sent        []wire.Message
	disconnected bool
}

func (f *fakeSender) Send(msg wire.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) Disconnect() {
	f.disconnected = true
}

func newTestPeer(inbound bool) (*Peer, *fakeSender) {
	fs := &fakeSender{}
	addr := addrbook.NetAddress{IP: net.ParseIP("203.0.113.9"), Port: 16111}
	return New(addr, inbound, false, fs), fs
}

func TestHandshakeMarksFullyConnected(t *testing.T) {
	p, fs := newTestPeer(false)
	if p.IsFullyConnected() {
		t.Fatal("expected not fully connected before handshake")
	}

	if err := p.ProcessMessage(&wire.MsgVersion{ProtocolVersion: 1, IsSyncAvailable: true}); err != nil {
		t.Fatalf("ProcessMessage(version): %v", err)
	}
	if !p.IsFullyConnected() {
		t.Fatal("expected fully connected after version")
	}
	if len(fs.sent) != 1 {
		t.Fatalf("expected a verack reply, got %d messages", len(fs.sent))
	}
	if _, ok := fs.sent[0].(*wire.MsgVerAck); !ok {
		t.Fatalf("expected *wire.MsgVerAck, got:\n%s", spew.Sdump(fs.sent[0]))
	}
}

func TestPingPongResetsFailureCount(t *testing.T) {
	p, _ := newTestPeer(false)
	if err := p.SendPing(42); err != nil {
		t.Fatalf("SendPing: %v", err)
	}
	p.NotePingFailed()
	p.NotePingFailed()
	if p.NPingFailed() != 2 {
		t.Fatalf("expected 2 failed pings, got %d", p.NPingFailed())
	}

	if err := p.ProcessMessage(&wire.MsgPong{Nonce: 42}); err != nil {
		t.Fatalf("ProcessMessage(pong): %v", err)
	}
	if p.NPingFailed() != 0 {
		t.Fatalf("expected ping failure count reset, got %d", p.NPingFailed())
	}
}

func TestEnqueueRelayDropsNewestOnOverflow(t *testing.T) {
	p, _ := newTestPeer(false)
	for i := 0; i < outputQueueSize+10; i++ {
		p.EnqueueRelay(&wire.MsgAddr{})
	}
	if len(p.relayQueue) != outputQueueSize {
		t.Fatalf("expected queue to saturate at %d, got %d", outputQueueSize, len(p.relayQueue))
	}
}

func TestIsSyncTimeout(t *testing.T) {
	p, _ := newTestPeer(false)
	p.StartSync()
	if p.IsSyncTimeout(time.Hour) {
		t.Fatal("expected not timed out immediately after StartSync")
	}

	p.mu.Lock()
	p.lastBundleMsTime = time.Now().Add(-time.Hour)
	p.mu.Unlock()
	if !p.IsSyncTimeout(time.Minute) {
		t.Fatal("expected timed out after stale lastBundleMsTime")
	}
}

func TestDisconnectStopsTransport(t *testing.T) {
	p, fs := newTestPeer(true)
	p.Disconnect()
	if !fs.disconnected {
		t.Fatal("expected sender.Disconnect to be called")
	}
}
