package peermgr

import (
	"sync/atomic"
	"time"

	"github.com/triadag/triad/addrbook"
	"github.com/triadag/triad/block"
	"github.com/triadag/triad/connmgr"
	"github.com/triadag/triad/daghash"
	"github.com/triadag/triad/obc"
	"github.com/triadag/triad/wire"
)

// handleMessageLoop is worker loop 1 (spec.md §4.2): it blocks dequeuing
// from the ConnectionManager's single FIFO queue until QuitQueue is
// called, dispatching each message by type.
func (m *Manager) handleMessageLoop() {
	defer m.wg.Done()
	var msg connmgr.Message
	for m.conn.ReceiveMessage(&msg) {
		m.dispatch(msg.ConnID, msg.Msg)
	}
}

func (m *Manager) dispatch(id connmgr.ConnectionID, wmsg wire.Message) {
	switch msg := wmsg.(type) {
	case *wire.MsgBlock:
		m.handleBlock(id, msg)
	case *wire.MsgTx:
		m.handleTx(id, msg)
	case *wire.MsgAddr:
		m.handleAddr(id, msg)
	default:
		p, ok := m.GetPeer(id)
		if !ok {
			log.Debugf("message from unknown connection %d", id)
			return
		}
		if err := p.ProcessMessage(wmsg); err != nil {
			log.Debugf("peer %d: %s", p.ID(), err)
		}
	}
}

// handleBlock forwards a block to the DAG via AddNewBlock; it does not
// consult the orphan container itself. The core never decides
// admissibility; dependency discovery based on which parents are
// missing is the DAG's job, with the
// orphan container only tracking blocks the DAG has already told it are
// incomplete (spec.md §4.1, §4.2).
func (m *Manager) handleBlock(id connmgr.ConnectionID, msg *wire.MsgBlock) {
	p, ok := m.GetPeer(id)
	if !ok {
		return
	}

	if m.isInitialSync() && m.cfg.DropBlocksDuringSync {
		// During sync, unsolicited BLOCK messages are dropped; sync uses
		// milestone bundles delivered through the peer-specific handler
		// (spec.md §4.2, Open Questions §9).
		log.Tracef("dropping unsolicited block from peer %d during initial sync", p.ID())
		return
	}

	hdr := block.NewHeader(msg.Hash, msg.MilestoneHash, msg.TipHash, msg.PrevHash, time.Unix(0, int64(msg.Timestamp)*int64(time.Millisecond)))
	if err := m.dag.AddNewBlock(hdr, p); err != nil {
		log.Debugf("peer %d: AddNewBlock failed: %s", p.ID(), err)
	}
}

// ReleaseOrphan is called by the DAG once it determines which of a
// block's predecessors are missing, handing the block to the orphan
// container (spec.md §4.1 AddBlock). It is exposed so the DAG
// collaborator can drive the core's orphan bookkeeping without the core
// needing to understand DAG-internal admissibility rules.
func (m *Manager) ReleaseOrphan(b block.Block, mask obc.MissingMask) {
	m.orphans.AddBlock(b, mask)
}

// SubmitHash notifies the orphan container that hash is now available,
// returning any blocks that become releasable, for the DAG to re-submit.
func (m *Manager) SubmitHash(hash daghash.Hash) []block.Block {
	return m.orphans.SubmitHash(hash)
}

func (m *Manager) handleTx(id connmgr.ConnectionID, msg *wire.MsgTx) {
	p, ok := m.GetPeer(id)
	if !ok {
		return
	}
	if m.txDecoder == nil {
		return
	}
	tx, err := m.txDecoder.Decode(msg.Payload)
	if err != nil {
		log.Debugf("peer %d: tx decode failed: %s", p.ID(), err)
		return
	}
	if err := tx.Verify(); err != nil {
		log.Debugf("peer %d: tx verification failed: %s", p.ID(), err)
		return
	}
	accepted, err := m.mempool.ReceiveTransaction(tx)
	if err != nil {
		log.Debugf("peer %d: mempool rejected tx: %s", p.ID(), err)
		return
	}
	if accepted {
		m.RelayTransaction(msg, id)
	}
}

func (m *Manager) handleAddr(id connmgr.ConnectionID, msg *wire.MsgAddr) {
	p, ok := m.GetPeer(id)
	if !ok {
		return
	}

	if len(msg.AddrList) > m.cfg.MaxAddressSize {
		log.Debugf("peer %d: dropping oversized addr message (%d entries)", p.ID(), len(msg.AddrList))
		return
	}

	relay := &wire.MsgAddr{}
	for _, na := range msg.AddrList {
		addr := addrbook.NetAddress{IP: na.IP, Port: na.Port}
		if !addrbook.IsRoutable(addr) {
			continue
		}
		m.addrBook.AddNewAddress(addr)
		relay.AddAddress(na)
	}

	if len(relay.AddrList) > 0 {
		m.RelayAddressMsg(relay, id)
	}

	if p.IsSeed() {
		m.disconnectPeer(id, p)
	}
}

func (m *Manager) isInitialSync() bool {
	return atomic.LoadInt32(&m.initialSync) != 0
}
