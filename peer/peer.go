// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package peer models one remote node's handshake/liveness/relay state
// (spec.md §3, §4.2 collaborator). It owns no transport itself; all writes
// go through a Sender supplied at construction, so PeerManager can wire it
// to connmgr.Manager while tests wire it to a fake.
package peer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"github.com/triadag/triad/addrbook"
	"github.com/triadag/triad/logs"
	"github.com/triadag/triad/wire"
)

var log = logs.NewBackend().Logger("PEER")

// Sender delivers a message to the peer's transport and tears it down on
// request. PeerManager implements it by binding a connmgr.ConnectionID;
// tests implement it with an in-memory fake.
type Sender interface {
	Send(msg wire.Message) error
	Disconnect()
}

// outputQueueSize bounds each peer's relay send queue (spec.md §5: bounded,
// drop-newest on overflow for relay traffic).
const outputQueueSize = 50

// nodeCount assigns each Peer an id for logging, mirroring peer/peer.go's
// nodeCount counter.
var nodeCount int32

// Peer tracks one remote connection's handshake and liveness state.
type Peer struct {
	id     int32
	sender Sender

	mu sync.RWMutex

	address         addrbook.NetAddress
	isInbound       bool
	isFullyConnected bool
	isSeed          bool
	isSyncAvailable bool
	isValid         bool

	connectedTime    time.Time
	lastPingTime     time.Time
	lastPingNonce    uint64
	nPingFailed      int
	lastBundleMsTime time.Time

	addressMe addrbook.NetAddress // peer-reported own address, advisory only (Design Notes §9)

	relayQueue chan wire.Message
}

// New creates a Peer for a freshly accepted/dialed connection. It is not
// fully connected until ProcessMessage observes a completed version
// exchange.
func New(addr addrbook.NetAddress, inbound bool, isSeed bool, sender Sender) *Peer {
	p := &Peer{
		id:               atomic.AddInt32(&nodeCount, 1),
		sender:           sender,
		address:          addr,
		isInbound:        inbound,
		isSeed:           isSeed,
		isValid:          true,
		connectedTime:    time.Now(),
		lastPingTime:     time.Now(),
		lastBundleMsTime: time.Now(),
		relayQueue:       make(chan wire.Message, outputQueueSize),
	}
	return p
}

// ID returns the peer's local diagnostic id.
func (p *Peer) ID() int32 { return p.id }

// Address returns the peer's remote address.
func (p *Peer) Address() addrbook.NetAddress {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.address
}

// IsInbound reports whether the connection was accepted rather than dialed.
func (p *Peer) IsInbound() bool { return p.isInbound }

// IsFullyConnected reports whether the version handshake has completed.
func (p *Peer) IsFullyConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isFullyConnected
}

// IsSeed reports whether this peer's address is a configured bootstrap
// seed, whether the connection was dialed or accepted.
func (p *Peer) IsSeed() bool { return p.isSeed }

// IsSyncAvailable reports whether the peer advertised itself as able to
// serve a sync.
func (p *Peer) IsSyncAvailable() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isSyncAvailable
}

// IsValid reports whether the peer is still a legitimate member of the
// peer map (invalid peers are removed without a Disconnect, spec.md §4.2
// CheckTimeout).
func (p *Peer) IsValid() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isValid
}

// ConnectedTime returns when the connection was created.
func (p *Peer) ConnectedTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connectedTime
}

// LastPingTime returns the time of the most recently sent ping.
func (p *Peer) LastPingTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastPingTime
}

// NPingFailed returns the number of consecutive unanswered pings.
func (p *Peer) NPingFailed() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.nPingFailed
}

// LastBundleMsTime returns the time a milestone bundle last arrived from
// this peer during sync.
func (p *Peer) LastBundleMsTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastBundleMsTime
}

// NoteBundleReceived records that a milestone bundle just arrived, advancing
// LastBundleMsTime for sync-stall detection (spec.md §4.2 InitialSync,
// Scenario F).
func (p *Peer) NoteBundleReceived() {
	p.mu.Lock()
	p.lastBundleMsTime = time.Now()
	p.mu.Unlock()
}

// SendVersion sends the version handshake message, stamped with the best
// milestone height known locally.
func (p *Peer) SendVersion(bestMilestoneHeight uint64, localAddr addrbook.NetAddress) error {
	msg := &wire.MsgVersion{
		ProtocolVersion:     1,
		BestMilestoneHeight: bestMilestoneHeight,
		Nonce:               uint64(p.id),
		AddrMe: wire.NetAddress{
			IP:   localAddr.IP,
			Port: localAddr.Port,
		},
		IsSyncAvailable: true,
	}
	return p.sender.Send(msg)
}

// SendVerAck acknowledges a received version message.
func (p *Peer) SendVerAck() error {
	return p.sender.Send(&wire.MsgVerAck{})
}

// SendPing emits a liveness probe and advances lastPingTime. If the
// previous ping was never answered by a matching pong, it is counted as
// failed.
func (p *Peer) SendPing(nonce uint64) error {
	p.mu.Lock()
	if p.lastPingNonce != 0 {
		p.nPingFailed++
	}
	p.lastPingTime = time.Now()
	p.lastPingNonce = nonce
	p.mu.Unlock()
	return p.sender.Send(&wire.MsgPing{Nonce: nonce})
}

// SendLocalAddress announces this node's own address to the peer
// (kBroadLocalAddressInterval, spec.md §4.2 periodic scheduler).
func (p *Peer) SendLocalAddress(local addrbook.NetAddress) error {
	msg := &wire.MsgAddr{}
	msg.AddAddress(&wire.NetAddress{IP: local.IP, Port: local.Port, Timestamp: time.Now()})
	return p.sender.Send(msg)
}

// SendAddresses drains the peer's pending relay queue (blocks, transactions,
// and address announcements alike — spec.md §4.2's "address-relay queue" is
// this same bounded send queue). This is the queue's only consumer: it
// flushes on the periodic kSendAddressInterval tick rather than as each
// message is enqueued, so nothing else may also drain relayQueue.
func (p *Peer) SendAddresses() error {
	for {
		select {
		case msg := <-p.relayQueue:
			if err := p.sender.Send(msg); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// EnqueueRelay enqueues msg on this peer's bounded relay queue, dropping
// the newest message on overflow (spec.md §5). Used for blocks,
// transactions, and address announcements alike; SendAddresses is the only
// consumer.
func (p *Peer) EnqueueRelay(msg wire.Message) {
	select {
	case p.relayQueue <- msg:
	default:
		log.Debugf("peer %d: relay queue full, dropping message", p.id)
	}
}

// ProcessMessage dispatches a message the core did not handle directly
// (BLOCK/TX/ADDR dispatch is peermgr's job; this handles the
// handshake/ping/sync messages delegated to the peer, spec.md §4.2
// HandleMessage "default" case).
func (p *Peer) ProcessMessage(msg wire.Message) error {
	switch m := msg.(type) {
	case *wire.MsgVersion:
		return p.handleVersion(m)
	case *wire.MsgVerAck:
		p.mu.Lock()
		p.isFullyConnected = true
		p.mu.Unlock()
		return nil
	case *wire.MsgPing:
		return p.sender.Send(&wire.MsgPong{Nonce: m.Nonce})
	case *wire.MsgPong:
		p.mu.Lock()
		if m.Nonce == p.lastPingNonce {
			p.nPingFailed = 0
			p.lastPingNonce = 0
		}
		p.mu.Unlock()
		return nil
	default:
		if log.Level() <= logs.LevelTrace {
			log.Tracef("peer %d: unexpected message dump:\n%s", p.id, spew.Sdump(msg))
		}
		return errors.Errorf("peer %d: unexpected message type %T", p.id, msg)
	}
}

func (p *Peer) handleVersion(m *wire.MsgVersion) error {
	p.mu.Lock()
	p.isSyncAvailable = m.IsSyncAvailable
	p.addressMe = addrbook.NetAddress{IP: m.AddrMe.IP, Port: m.AddrMe.Port}
	p.isFullyConnected = true
	p.mu.Unlock()
	return p.SendVerAck()
}

// AddressMe returns the address the peer self-reported in its version
// message. Advisory only (Design Notes §9, Open Questions §7): a
// malicious peer can claim an arbitrary address.
func (p *Peer) AddressMe() addrbook.NetAddress {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.addressMe
}

// StartSync instructs the peer to begin serving a milestone sync from its
// current state. The actual bundle request wire message is out of scope
// (spec.md §1 "scripting/transaction-verification engine" sibling
// out-of-scope items). It does not touch lastBundleMsTime: that field only
// advances on an actual bundle arrival (NoteBundleReceived), so repeated
// StartSync calls while a sync is stalled don't mask the stall.
func (p *Peer) StartSync() {}

// IsSyncTimeout reports whether this peer has stalled as a sync source
// (spec.md Scenario F): no bundle has arrived within threshold.
func (p *Peer) IsSyncTimeout(threshold time.Duration) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return time.Since(p.lastBundleMsTime) > threshold
}

// NotePingFailed records an unanswered ping.
func (p *Peer) NotePingFailed() {
	p.mu.Lock()
	p.nPingFailed++
	p.mu.Unlock()
}

// Invalidate marks the peer invalid for removal-without-disconnect
// (spec.md §4.2 CheckTimeout: "Invalid peers are removed without
// disconnect").
func (p *Peer) Invalidate() {
	p.mu.Lock()
	p.isValid = false
	p.mu.Unlock()
}

// Disconnect tears down the underlying transport.
func (p *Peer) Disconnect() {
	p.sender.Disconnect()
}
