// Package peer tracks the set of connected network peers.
//
// The teacher's Peer/PeerSet tracked bare hostnames polled over HTTP. This
// generalizes it to long-lived TCP connections: a Peer now owns the
// net.Conn the node's dispatch loop reads and writes frames on, and the
// set gates against duplicate outbound dials to the same address.
package peer

import (
	"net"
	"sync"
)

// Peer represents one connected remote node.
type Peer struct {
	Addr string
	Conn net.Conn
}

// Set is the thread-safe registry of currently connected peers, keyed by
// address so a peer can be looked up or removed on disconnect.
type Set struct {
	mu    sync.RWMutex
	peers map[string]Peer
}

// NewSet constructs an empty peer set.
func NewSet() *Set {
	return &Set{
		peers: make(map[string]Peer),
	}
}

// Add registers a connected peer. It reports false if the address is
// already present, in which case the caller should close conn rather than
// use it, to avoid redundant duplicate connections.
func (s *Set) Add(addr string, conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.peers[addr]; exists {
		return false
	}
	s.peers[addr] = Peer{Addr: addr, Conn: conn}
	return true
}

// Remove drops a peer from the set, typically called once its dispatch loop
// exits after a disconnect.
func (s *Set) Remove(addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peers, addr)
}

// Has reports whether addr is currently connected.
func (s *Set) Has(addr string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.peers[addr]
	return exists
}

// Copy returns a snapshot slice of all currently connected peers, safe to
// iterate without holding the set's lock.
func (s *Set) Copy() []Peer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	peers := make([]Peer, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	return peers
}

// Len returns the number of currently connected peers.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peers)
}
