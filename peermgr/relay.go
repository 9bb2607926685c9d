package peermgr

import (
	"github.com/triadag/triad/connmgr"
	"github.com/triadag/triad/peer"
	"github.com/triadag/triad/wire"
)

// snapshotPeers copies the current peer set under the read lock so relay
// fanout can iterate without holding peerMap across blocking sends
// (spec.md §5: "implementers must snapshot peer references before
// iteration to avoid iterator invalidation").
func (m *Manager) snapshotPeers() map[connmgr.ConnectionID]*peer.Peer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[connmgr.ConnectionID]*peer.Peer, len(m.peerMap))
	for id, p := range m.peerMap {
		snap[id] = p
	}
	return snap
}

// RelayBlock sends msg to every peer except from (spec.md §4.2
// RelayBlock). RelayProbability implements the Open Question kAlpha:
// default 1.0 reproduces the spec's unconditional-broadcast contract.
func (m *Manager) RelayBlock(msg *wire.MsgBlock, from connmgr.ConnectionID) {
	for id, p := range m.snapshotPeers() {
		if id == from {
			continue
		}
		if m.cfg.RelayProbability < 1.0 && m.randFloat64() > m.cfg.RelayProbability {
			continue
		}
		p.EnqueueRelay(msg)
	}
}

// RelayTransaction sends msg to every peer except from (spec.md §4.2
// RelayTransaction).
func (m *Manager) RelayTransaction(msg *wire.MsgTx, from connmgr.ConnectionID) {
	for id, p := range m.snapshotPeers() {
		if id == from {
			continue
		}
		if m.cfg.RelayProbability < 1.0 && m.randFloat64() > m.cfg.RelayProbability {
			continue
		}
		p.EnqueueRelay(msg)
	}
}

// RelayAddressMsg picks up to MaxPeersToRelayAddr distinct random peers
// other than from and enqueues msg on each (spec.md §4.2
// RelayAddressMsg).
func (m *Manager) RelayAddressMsg(msg *wire.MsgAddr, from connmgr.ConnectionID) {
	snap := m.snapshotPeers()
	delete(snap, from)
	if len(snap) == 0 {
		return
	}

	ids := make([]connmgr.ConnectionID, 0, len(snap))
	for id := range snap {
		ids = append(ids, id)
	}

	n := m.cfg.MaxPeersToRelayAddr
	if n > len(ids) {
		n = len(ids)
	}

	chosen := make(map[connmgr.ConnectionID]struct{}, n)
	for len(chosen) < n {
		idx := m.randIntn(len(ids))
		chosen[ids[idx]] = struct{}{}
	}

	for id := range chosen {
		snap[id].EnqueueRelay(msg)
	}
}

func (m *Manager) disconnectPeer(id connmgr.ConnectionID, p *peer.Peer) {
	m.mu.Lock()
	delete(m.peerMap, id)
	key := p.Address().IP.String()
	delete(m.connectedAddress, key)
	m.mu.Unlock()
	p.Disconnect()
}
