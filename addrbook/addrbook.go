// Package addrbook maintains the set of addresses a node knows about: a
// seed set used to bootstrap connectivity, a general known set gathered
// from peer ADDR messages, and the last-attempt timestamp used by
// PeerManager.OpenConnection to avoid hammering an address.
//
// Grounded on addrmgr/knownaddress.go's KnownAddress bookkeeping, trimmed
// to the narrower AddressBook contract of the core (spec.md §3, §4.4).
package addrbook

import (
	"math/rand"
	"sync"
	"time"

	"github.com/triadag/triad/logs"
)

var log = logs.NewBackend().Logger("ADXR")

// Book is a concurrency-safe collection of known peer addresses.
type Book struct {
	mu     sync.RWMutex
	seeds  map[string]knownAddress
	known  map[string]knownAddress
	source *rand.Rand
}

// New creates an empty address book seeded with the given bootstrap
// addresses.
func New(seeds []NetAddress) *Book {
	b := &Book{
		seeds:  make(map[string]knownAddress, len(seeds)),
		known:  make(map[string]knownAddress),
		source: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, s := range seeds {
		b.seeds[s.IP.String()] = knownAddress{addr: s, isSeed: true}
	}
	return b
}

// Init prepares in-memory bookkeeping: it creates the known set if it is
// missing and keeps any entries already present. Persistence is delegated
// to an external collaborator (spec.md §6); this core never owns storage,
// so nothing is loaded here.
func (b *Book) Init() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.known == nil {
		b.known = make(map[string]knownAddress)
	}
}

// AddNewAddress records addr as known, if it isn't already.
func (b *Book) AddNewAddress(addr NetAddress) {
	if !IsRoutable(addr) {
		return
	}
	key := addr.IP.String()

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, isSeed := b.seeds[key]; isSeed {
		return
	}
	if _, ok := b.known[key]; ok {
		return
	}
	b.known[key] = knownAddress{addr: addr}
}

// IsSeedAddress reports whether addr is a configured bootstrap seed.
func (b *Book) IsSeedAddress(addr NetAddress) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.seeds[addr.IP.String()]
	return ok
}

// GetOneSeed returns an arbitrary seed address, or ok=false if none are
// configured.
func (b *Book) GetOneSeed() (NetAddress, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ka := range b.seeds {
		return ka.addr, true
	}
	return NetAddress{}, false
}

// GetOneAddress returns an arbitrary known address. If onlyNew is true,
// addresses that have never been tried are preferred.
func (b *Book) GetOneAddress(onlyNew bool) (NetAddress, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.known) == 0 {
		return NetAddress{}, false
	}

	if onlyNew {
		for _, ka := range b.known {
			if ka.attempts == 0 {
				return ka.addr, true
			}
		}
	}

	// Uniform sampling over the known set: pick a random offset and walk
	// to it, matching the offset-sampling idiom used for relay peer
	// selection elsewhere in the core.
	idx := b.source.Intn(len(b.known))
	i := 0
	for _, ka := range b.known {
		if i == idx {
			return ka.addr, true
		}
		i++
	}
	return NetAddress{}, false
}

// GetLastTry returns the last time a connection to addr was attempted, the
// zero time if never attempted.
func (b *Book) GetLastTry(addr NetAddress) time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if ka, ok := b.known[addr.IP.String()]; ok {
		return ka.lastTry
	}
	return time.Time{}
}

// SetLastTry records that a connection to addr was attempted at t.
func (b *Book) SetLastTry(addr NetAddress, t time.Time) {
	key := addr.IP.String()

	b.mu.Lock()
	defer b.mu.Unlock()
	ka := b.known[key]
	ka.addr = addr
	ka.lastTry = t
	ka.attempts++
	b.known[key] = ka
	log.Tracef("set last-try for %s to %s (attempt %d)", addr, t, ka.attempts)
}
