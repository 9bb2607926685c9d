package peermgr

import "time"

// Config tunes the PeerManager's timeouts, limits, and periodic intervals
// (spec.md §6 "Constants"). Defaults reproduce the spec's named constants.
type Config struct {
	// MaxOutbound caps the number of simultaneous outbound connections
	// (kMaxOutbound).
	MaxOutbound int

	// ConnectionSetupTimeout bounds how long a not-yet-fully-connected
	// peer may remain pending before it is evicted (kConnectionSetupTimeout).
	ConnectionSetupTimeout time.Duration

	// BroadcastLocalAddressInterval is how often each peer is sent this
	// node's own address (kBroadLocalAddressInterval).
	BroadcastLocalAddressInterval time.Duration

	// PingWaitTimeout bounds how long a ping may go unanswered before
	// counting as a failure window (kPingWaitTimeout).
	PingWaitTimeout time.Duration

	// MaxPingFailures disconnects a peer once exceeded (kMaxPingFailures).
	MaxPingFailures int

	// MaxAddressSize is the largest ADDR message this node will process
	// without dropping it whole (kMaxAddressSize).
	MaxAddressSize int

	// MaxPeersToRelayAddr bounds the fanout of ADDR relay (kMaxPeersToRelayAddr).
	MaxPeersToRelayAddr int

	// PingSendInterval is how often each peer is sent a liveness probe
	// (kPingSendInterval).
	PingSendInterval time.Duration

	// SendAddressInterval is how often each peer's address-relay queue is
	// flushed (kSendAddressInterval).
	SendAddressInterval time.Duration

	// CheckTimeoutInterval is how often the peer set is swept for stale
	// connections (kCheckTimeoutInterval).
	CheckTimeoutInterval time.Duration

	// CheckSyncInterval is how often the sync peer's progress is checked
	// during initial sync (kCheckSyncInterval).
	CheckSyncInterval time.Duration

	// SyncTimeThreshold is how far behind wall-clock best-milestone time
	// the node may be before it is no longer considered syncing
	// (kSyncTimeThreshold).
	SyncTimeThreshold time.Duration

	// RelayProbability is an Open Question (spec.md §9): kAlpha = 0.5
	// implies probabilistic relay, but the spec's own contract is
	// unconditional broadcast. Default 1.0 reproduces that contract;
	// operators may lower it to experiment with the probabilistic policy
	// without a code change.
	RelayProbability float64

	// DropBlocksDuringSync is an Open Question (spec.md §9): whether
	// dropping unsolicited BLOCK messages during initial sync is policy
	// or a race hazard is unclear from the original source. Kept as a
	// configurable gate, default true (matches the spec's described
	// behavior).
	DropBlocksDuringSync bool
}

// DefaultConfig returns the constants named in spec.md §6.
func DefaultConfig() Config {
	return Config{
		MaxOutbound:                   8,
		ConnectionSetupTimeout:        180 * time.Second,
		BroadcastLocalAddressInterval: 86400 * time.Second,
		PingWaitTimeout:               180 * time.Second,
		MaxPingFailures:               3,
		MaxAddressSize:                1000,
		MaxPeersToRelayAddr:           8,
		PingSendInterval:              2 * time.Minute,
		SendAddressInterval:           30 * time.Second,
		CheckTimeoutInterval:          15 * time.Second,
		CheckSyncInterval:             30 * time.Second,
		SyncTimeThreshold:             2 * time.Hour,
		RelayProbability:              1.0,
		DropBlocksDuringSync:          true,
	}
}
