package peermgr

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/triadag/triad/addrbook"
	"github.com/triadag/triad/block"
	"github.com/triadag/triad/connmgr"
	"github.com/triadag/triad/obc"
	"github.com/triadag/triad/peer"
	"github.com/triadag/triad/wire"
)

type fakeDAG struct {
	milestoneTime time.Time
	queueEmpty    bool
}

func (d *fakeDAG) AddNewBlock(b block.Block, source *peer.Peer) error { return nil }
func (d *fakeDAG) GetBestMilestoneHeight() uint64                     { return 1 }
func (d *fakeDAG) GetMilestoneTime() time.Time                       { return d.milestoneTime }
func (d *fakeDAG) IsDownloadQueueEmpty() bool                         { return d.queueEmpty }

type fakeMempool struct {
	accept bool
}

func (p *fakeMempool) ReceiveTransaction(tx Transaction) (bool, error) {
	return p.accept, nil
}

func newSyncedManager(t *testing.T) *Manager {
	t.Helper()
	conn := connmgr.New(connmgr.Config{})
	book := addrbook.New(nil)
	orphans := obc.New()
	dag := &fakeDAG{milestoneTime: time.Now()}
	mempool := &fakeMempool{accept: true}
	local := addrbook.NetAddress{IP: net.ParseIP("127.0.0.1"), Port: 16111}
	return New(DefaultConfig(), conn, book, orphans, dag, mempool, nil, local)
}

func TestHasConnectedToMatchesRemoteAddress(t *testing.T) {
	m := newSyncedManager(t)

	sender := &recordingSender{}
	addr := addrbook.NetAddress{IP: net.ParseIP("198.51.100.4"), Port: 16111}
	p := peer.New(addr, false, false, sender)

	m.mu.Lock()
	m.peerMap[connmgr.ConnectionID(1)] = p
	m.mu.Unlock()

	if !m.HasConnectedTo(addr) {
		t.Fatal("expected HasConnectedTo to match the peer's remote address")
	}
	other := addrbook.NetAddress{IP: net.ParseIP("198.51.100.5"), Port: 16111}
	if m.HasConnectedTo(other) {
		t.Fatal("expected HasConnectedTo to not match an unrelated address")
	}
}

func TestHandleAddrRelaysAndDropsSeed(t *testing.T) {
	m := newSyncedManager(t)

	seedAddr := addrbook.NetAddress{IP: net.ParseIP("198.51.100.10"), Port: 16111}
	seedSender := &recordingSender{}
	seedPeer := peer.New(seedAddr, true, true, seedSender)

	otherSender := &recordingSender{}
	otherPeer := peer.New(addrbook.NetAddress{IP: net.ParseIP("198.51.100.11"), Port: 16111}, false, false, otherSender)

	m.mu.Lock()
	m.peerMap[connmgr.ConnectionID(1)] = seedPeer
	m.peerMap[connmgr.ConnectionID(2)] = otherPeer
	m.mu.Unlock()

	routable := &wire.NetAddress{IP: net.ParseIP("203.0.113.20"), Port: 16111}
	msg := &wire.MsgAddr{AddrList: []*wire.NetAddress{routable}}

	m.handleAddr(connmgr.ConnectionID(1), msg)

	if !seedSender.disconnected {
		t.Fatal("expected seed peer to be disconnected after relaying addresses")
	}

	// Relayed messages wait in each peer's relay queue until the periodic
	// send-address task flushes them.
	m.sendAddress()
	otherSender.mu.Lock()
	defer otherSender.mu.Unlock()
	if len(otherSender.sent) == 0 {
		t.Fatal("expected the address to be relayed to the other peer")
	}
}

func TestHandleBlockDroppedDuringInitialSync(t *testing.T) {
	m := newSyncedManager(t)
	m.initialSync = 1

	sender := &recordingSender{}
	p := peer.New(addrbook.NetAddress{IP: net.ParseIP("198.51.100.30"), Port: 16111}, false, false, sender)
	m.mu.Lock()
	m.peerMap[connmgr.ConnectionID(1)] = p
	m.mu.Unlock()

	var calls int
	m.dag = &countingDAG{fakeDAG: fakeDAG{milestoneTime: time.Now()}, calls: &calls}

	m.handleBlock(connmgr.ConnectionID(1), &wire.MsgBlock{})

	if calls != 0 {
		t.Fatalf("expected AddNewBlock not to be called during initial sync, got %d calls", calls)
	}
}

type countingDAG struct {
	fakeDAG
	calls *int
}

func (d *countingDAG) AddNewBlock(b block.Block, source *peer.Peer) error {
	*d.calls++
	return nil
}

type recordingSender struct {
	mu           sync.Mutex
	sent         []wire.Message
	disconnected bool
}

func (s *recordingSender) Send(msg wire.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnected = true
}
