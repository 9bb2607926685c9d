// Package peermgr implements the PeerManager (spec.md §4.2): the
// long-running service that multiplexes peer connections, drives initial
// sync, relays blocks/transactions/addresses, and enforces liveness
// through periodic timeout sweeps.
//
// Grounded on original_source/src/peer/peer_manager.cpp and .h for
// control flow and field layout, and on connmgr/connmanager.go and
// server/p2p/p2p.go for Go concurrency idiom (goroutines over raw
// threads, sync.RWMutex, channel-based quit signaling instead of thread
// joins).
package peermgr

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/triadag/triad/addrbook"
	"github.com/triadag/triad/connmgr"
	"github.com/triadag/triad/logs"
	"github.com/triadag/triad/obc"
	"github.com/triadag/triad/peer"
	"github.com/triadag/triad/scheduler"
	"github.com/triadag/triad/wire"
)

var log = logs.NewBackend().Logger("PMGR")

// Manager is the PeerManager: it owns the peer set and drives its four
// worker loops plus the periodic scheduler (spec.md §4.2).
type Manager struct {
	cfg          Config
	localAddress addrbook.NetAddress
	nodeID       uint64

	conn      *connmgr.Manager
	addrBook  *addrbook.Book
	orphans   *obc.Container
	dag       DAG
	mempool   Mempool
	txDecoder TransactionDecoder
	scheduler *scheduler.Scheduler

	// mu guards peerMap and connectedAddress. Spec.md §3's separate
	// "pending handshake set" (IPAddress -> connectedTime) is not tracked
	// as a distinct map here: every Peer already carries its own
	// ConnectedTime and IsFullyConnected, which checkTimeout sweeps
	// directly (spec.md §4.2 CheckTimeout) with identical semantics and
	// no second map to keep in sync.
	mu               sync.RWMutex
	peerMap          map[connmgr.ConnectionID]*peer.Peer
	connectedAddress map[string]struct{}

	initialSync int32 // atomic bool
	syncPeerID  connmgr.ConnectionID
	hasSyncPeer int32 // atomic bool

	interrupt int32 // atomic bool
	stop      chan struct{}
	wg        sync.WaitGroup

	rand   *rand.Rand
	randMu sync.Mutex
}

// New creates a Manager. Call Start to begin its worker loops.
func New(cfg Config, conn *connmgr.Manager, addrBook *addrbook.Book, orphans *obc.Container, dag DAG, mempool Mempool, txDecoder TransactionDecoder, localAddress addrbook.NetAddress) *Manager {
	m := &Manager{
		cfg:              cfg,
		localAddress:     localAddress,
		nodeID:           rand.Uint64(),
		conn:             conn,
		addrBook:         addrBook,
		orphans:          orphans,
		dag:              dag,
		mempool:          mempool,
		txDecoder:        txDecoder,
		scheduler:        scheduler.New(),
		peerMap:          make(map[connmgr.ConnectionID]*peer.Peer),
		connectedAddress: make(map[string]struct{}),
		stop:             make(chan struct{}),
		rand:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	return m
}

// Start registers connection callbacks, wires the periodic scheduler, and
// launches the four worker loops (spec.md §4.2).
func (m *Manager) Start() {
	m.conn.RegisterNewConnectionCallback(m.onConnectionCreated)
	m.conn.RegisterDeleteConnectionCallback(m.onConnectionClosed)

	m.scheduler.AddPeriodTask(m.cfg.CheckTimeoutInterval, m.checkTimeout)
	m.scheduler.AddPeriodTask(m.cfg.BroadcastLocalAddressInterval, m.broadcastLocalAddress)
	m.scheduler.AddPeriodTask(m.cfg.SendAddressInterval, m.sendAddress)
	m.scheduler.AddPeriodTask(m.cfg.PingSendInterval, m.pingSend)

	if m.isSynced() {
		atomic.StoreInt32(&m.initialSync, 0)
	} else {
		atomic.StoreInt32(&m.initialSync, 1)
	}

	m.wg.Add(4)
	go m.handleMessageLoop()
	go m.openConnectionLoop()
	go m.initialSyncLoop()
	go m.scheduleLoop()
}

// Stop cancels all worker loops, disconnects every peer, and stops the
// connection manager (spec.md §5 "Cancellation").
func (m *Manager) Stop() {
	atomic.StoreInt32(&m.interrupt, 1)
	close(m.stop)
	m.conn.QuitQueue()
	m.wg.Wait()

	m.mu.Lock()
	peers := make([]*peer.Peer, 0, len(m.peerMap))
	for _, p := range m.peerMap {
		peers = append(peers, p)
	}
	m.peerMap = make(map[connmgr.ConnectionID]*peer.Peer)
	m.mu.Unlock()

	for _, p := range peers {
		p.Disconnect()
	}
	m.conn.Stop()
}

// NodeID returns this node's randomly generated 64-bit identity (spec.md
// §3). It is only reported at startup: it is not sent to peers or
// compared with anything they send, so self-connections are not detected.
func (m *Manager) NodeID() uint64 {
	return m.nodeID
}

func (m *Manager) interrupted() bool {
	return atomic.LoadInt32(&m.interrupt) != 0
}

// connSender adapts a connmgr.ConnectionID into the peer.Sender interface
// a Peer uses for outbound writes.
type connSender struct {
	conn *connmgr.Manager
	id   connmgr.ConnectionID
}

func (s connSender) Send(msg wire.Message) error {
	return s.conn.Send(s.id, msg)
}

func (s connSender) Disconnect() {
	s.conn.Disconnect(s.id)
}

// GetPeer returns the peer for a connection id, if still present.
func (m *Manager) GetPeer(id connmgr.ConnectionID) (*peer.Peer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.peerMap[id]
	return p, ok
}

// PeerCount returns the total number of tracked peers.
func (m *Manager) PeerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.peerMap)
}

// FullyConnectedCount returns the number of peers that have completed the
// version handshake.
func (m *Manager) FullyConnectedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, p := range m.peerMap {
		if p.IsFullyConnected() {
			n++
		}
	}
	return n
}

// HasConnectedTo reports whether some peer's remote address or
// peer-reported AddrMe matches addr. The AddrMe comparison is advisory
// only (spec.md §9 Open Questions): a malicious peer can self-report an
// arbitrary address.
func (m *Manager) HasConnectedTo(addr addrbook.NetAddress) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.peerMap {
		if addressEqual(p.Address(), addr) || addressEqual(p.AddressMe(), addr) {
			return true
		}
	}
	return false
}

func addressEqual(a, b addrbook.NetAddress) bool {
	return a.Port == b.Port && a.IP.Equal(b.IP)
}

func (m *Manager) isSynced() bool {
	return time.Since(m.dag.GetMilestoneTime()) <= m.cfg.SyncTimeThreshold
}

func (m *Manager) randFloat64() float64 {
	m.randMu.Lock()
	defer m.randMu.Unlock()
	return m.rand.Float64()
}

func (m *Manager) randIntn(n int) int {
	m.randMu.Lock()
	defer m.randMu.Unlock()
	return m.rand.Intn(n)
}
