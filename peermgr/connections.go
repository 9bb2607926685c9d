package peermgr

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/triadag/triad/addrbook"
	"github.com/triadag/triad/connmgr"
	"github.com/triadag/triad/peer"
)

// onConnectionCreated is ConnectionManager's new-connection callback
// (spec.md §4.2): it constructs a Peer and, for outbound connections,
// immediately sends the version handshake.
func (m *Manager) onConnectionCreated(id connmgr.ConnectionID, inbound bool) {
	addr := remoteNetAddress(m.conn.RemoteAddr(id))
	isSeed := m.addrBook.IsSeedAddress(addr)

	p := peer.New(addr, inbound, isSeed, connSender{conn: m.conn, id: id})

	m.mu.Lock()
	m.peerMap[id] = p
	m.mu.Unlock()

	if !inbound {
		if err := p.SendVersion(m.dag.GetBestMilestoneHeight(), m.localAddress); err != nil {
			log.Debugf("peer %d: send version failed: %s", p.ID(), err)
		}
	}
}

// onConnectionClosed is ConnectionManager's delete-connection callback
// (spec.md §4.2): it removes the peer from peerMap. Design Notes §9
// calls for posting this to a housekeeping channel rather than spawning a
// detached thread; here the callback itself only takes the lock briefly,
// so no separate channel is needed.
func (m *Manager) onConnectionClosed(id connmgr.ConnectionID) {
	m.mu.Lock()
	p, ok := m.peerMap[id]
	if ok {
		delete(m.peerMap, id)
		delete(m.connectedAddress, p.Address().IP.String())
	}
	m.mu.Unlock()
}

// remoteNetAddress adapts a net.Addr (as returned by connmgr) into an
// addrbook.NetAddress. Returns the zero value if addr is nil or not a
// recognizable TCP address.
func remoteNetAddress(addr net.Addr) addrbook.NetAddress {
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return addrbook.NetAddress{}
	}
	return addrbook.NetAddress{IP: tcpAddr.IP, Port: uint16(tcpAddr.Port)}
}

// openConnectionLoop is worker loop 2 (spec.md §4.2 OpenConnection): the
// outbound dialer. It sleeps 1s each iteration, dials at most one address
// per iteration, preferring seeds.
func (m *Manager) openConnectionLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			if m.interrupted() {
				return
			}
			m.tryOpenConnection()
		}
	}
}

func (m *Manager) tryOpenConnection() {
	if m.conn.GetOutboundNum() >= m.cfg.MaxOutbound {
		return
	}

	if addr, ok := m.addrBook.GetOneSeed(); ok && !m.alreadyConnected(addr) {
		m.dialAndMark(addr, true)
		return
	}

	const maxAttempts = 100
	for i := 0; i < maxAttempts; i++ {
		addr, ok := m.addrBook.GetOneAddress(false)
		if !ok {
			return
		}
		if m.alreadyConnected(addr) {
			continue
		}
		if time.Since(m.addrBook.GetLastTry(addr)) < 120*time.Second {
			continue
		}
		m.dialAndMark(addr, false)
		return
	}
}

func (m *Manager) alreadyConnected(addr addrbook.NetAddress) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.connectedAddress[addr.IP.String()]
	return ok
}

func (m *Manager) dialAndMark(addr addrbook.NetAddress, isSeed bool) {
	m.addrBook.SetLastTry(addr, time.Now())
	if err := m.conn.Connect(addr.IP.String(), addr.Port); err != nil {
		log.Debugf("dial %s failed: %s", addr, err)
		return
	}
	m.mu.Lock()
	m.connectedAddress[addr.IP.String()] = struct{}{}
	m.mu.Unlock()
}

// checkTimeout sweeps the peer set, disconnecting stale connections
// (spec.md §4.2 CheckTimeout, Scenarios B and C).
func (m *Manager) checkTimeout() {
	now := time.Now()
	for id, p := range m.snapshotPeers() {
		if !p.IsValid() {
			m.mu.Lock()
			delete(m.peerMap, id)
			m.mu.Unlock()
			continue
		}

		if p.IsFullyConnected() {
			timedOut := p.LastPingTime().Add(m.cfg.PingWaitTimeout).Before(now)
			tooManyFailures := p.NPingFailed() > m.cfg.MaxPingFailures
			syncTimedOut := p.IsSyncTimeout(m.cfg.CheckSyncInterval) && m.isSyncPeer(id)
			if timedOut || tooManyFailures || syncTimedOut {
				m.disconnectPeer(id, p)
			}
			continue
		}

		if p.ConnectedTime().Add(m.cfg.ConnectionSetupTimeout).Before(now) {
			m.disconnectPeer(id, p)
		}
	}
}

// broadcastLocalAddress sends this node's own address to every peer
// (spec.md §4.2 kBroadLocalAddressInterval).
func (m *Manager) broadcastLocalAddress() {
	for _, p := range m.snapshotPeers() {
		if err := p.SendLocalAddress(m.localAddress); err != nil {
			log.Tracef("peer %d: send local address failed: %s", p.ID(), err)
		}
	}
}

// sendAddress flushes each peer's address-relay queue (spec.md §4.2
// kSendAddressInterval).
func (m *Manager) sendAddress() {
	for _, p := range m.snapshotPeers() {
		if err := p.SendAddresses(); err != nil {
			log.Tracef("peer %d: send addresses failed: %s", p.ID(), err)
		}
	}
}

// pingSend emits a ping to every peer (spec.md §4.2 kPingSendInterval).
func (m *Manager) pingSend() {
	for _, p := range m.snapshotPeers() {
		nonce := uint64(m.randIntn(1 << 30))
		if err := p.SendPing(nonce); err != nil {
			log.Tracef("peer %d: send ping failed: %s", p.ID(), err)
			continue
		}
		// Peer.SendPing counts the previous ping as failed when no
		// matching pong arrived before this one was sent; checkTimeout
		// disconnects the peer once that count exceeds MaxPingFailures.
	}
}

// scheduleLoop is worker loop 4 (spec.md §4.2 ScheduleTask): every 1s,
// run the periodic scheduler.
func (m *Manager) scheduleLoop() {
	defer m.wg.Done()
	m.scheduler.Run(m.stop)
}

func (m *Manager) isSyncPeer(id connmgr.ConnectionID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return atomic.LoadInt32(&m.hasSyncPeer) != 0 && m.syncPeerID == id
}
