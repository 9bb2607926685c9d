package peermgr

import (
	"sync/atomic"
	"time"

	"github.com/triadag/triad/connmgr"
	"github.com/triadag/triad/peer"
)

// initialSyncLoop is worker loop 3 (spec.md §4.2 InitialSync). While the
// node is not synced, it ensures a valid sync peer every 100ms and checks
// the sync peer's progress every CheckSyncInterval (Scenario F).
func (m *Manager) initialSyncLoop() {
	defer m.wg.Done()

	if !m.isInitialSyncActive() {
		return
	}

	ensureTicker := time.NewTicker(100 * time.Millisecond)
	defer ensureTicker.Stop()
	checkTicker := time.NewTicker(m.cfg.CheckSyncInterval)
	defer checkTicker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ensureTicker.C:
			if m.interrupted() {
				return
			}
			m.ensureSyncPeer()
			if m.isSynced() {
				m.endInitialSync()
				return
			}
		case <-checkTicker.C:
			m.checkSyncProgress()
		}
	}
}

func (m *Manager) isInitialSyncActive() bool {
	return atomic.LoadInt32(&m.initialSync) != 0
}

func (m *Manager) endInitialSync() {
	atomic.StoreInt32(&m.initialSync, 0)
	m.mu.Lock()
	atomic.StoreInt32(&m.hasSyncPeer, 0)
	m.mu.Unlock()
}

// ensureSyncPeer picks a fully-connected, sync-available peer if none is
// currently selected, and instructs it to StartSync once the DAG's
// download queue is drained (spec.md §4.2 InitialSync).
func (m *Manager) ensureSyncPeer() {
	m.mu.RLock()
	haveSyncPeer := atomic.LoadInt32(&m.hasSyncPeer) != 0
	currentID := m.syncPeerID
	m.mu.RUnlock()

	if haveSyncPeer {
		if _, ok := m.GetPeer(currentID); ok {
			if m.dag.IsDownloadQueueEmpty() {
				if p, ok := m.GetPeer(currentID); ok {
					p.StartSync()
				}
			}
			return
		}
		// Sync peer disappeared; fall through to pick a new one.
		m.mu.Lock()
		atomic.StoreInt32(&m.hasSyncPeer, 0)
		m.mu.Unlock()
	}

	candidate, id, ok := m.pickSyncPeer()
	if !ok {
		return
	}

	m.mu.Lock()
	m.syncPeerID = id
	atomic.StoreInt32(&m.hasSyncPeer, 1)
	m.mu.Unlock()

	if m.dag.IsDownloadQueueEmpty() {
		candidate.StartSync()
	}
}

func (m *Manager) pickSyncPeer() (*peer.Peer, connmgr.ConnectionID, bool) {
	for id, p := range m.snapshotPeers() {
		if p.IsFullyConnected() && p.IsSyncAvailable() {
			return p, id, true
		}
	}
	return nil, 0, false
}

// checkSyncProgress verifies the current sync peer's lastBundleMsTime has
// advanced since the last check; if not, it disconnects the sync peer
// (spec.md Scenario F).
func (m *Manager) checkSyncProgress() {
	m.mu.RLock()
	haveSyncPeer := atomic.LoadInt32(&m.hasSyncPeer) != 0
	id := m.syncPeerID
	m.mu.RUnlock()
	if !haveSyncPeer {
		return
	}

	p, ok := m.GetPeer(id)
	if !ok {
		return
	}

	if p.IsSyncTimeout(m.cfg.CheckSyncInterval) {
		m.mu.Lock()
		atomic.StoreInt32(&m.hasSyncPeer, 0)
		m.mu.Unlock()
		m.disconnectPeer(id, p)
	}
}
