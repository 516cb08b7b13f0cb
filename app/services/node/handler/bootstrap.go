package handler

import (
	"fmt"
	"net"

	"github.com/coreledger/coreledger/foundation/blockchain/coin"
	"github.com/coreledger/coreledger/foundation/blockchain/wire"
)

// Bootstrap performs the node's startup sync against a list of seed
// addresses (spec §4.12): dial each seed, discover its known peers, merge
// those into the local peer set, then ask every known peer how far ahead
// of height 0 it is and pull blocks sequentially from whichever answered
// with the largest positive difference.
func (s *Server) Bootstrap(seeds []string) error {
	known := make(map[string]struct{})

	for _, seed := range seeds {
		addrs, err := s.discover(seed)
		if err != nil {
			s.log.Infow("handler: bootstrap: seed unreachable", "seed", seed, "error", err)
			continue
		}
		known[seed] = struct{}{}
		for _, a := range addrs {
			if a == s.self {
				continue
			}
			known[a] = struct{}{}
		}
	}

	if len(known) == 0 {
		s.log.Infow("handler: bootstrap: no reachable seeds, starting standalone")
		return nil
	}

	bestAddr, bestDelta := "", int32(0)
	for addr := range known {
		delta, err := s.askDifference(addr, 0)
		if err != nil {
			s.log.Infow("handler: bootstrap: difference query failed", "addr", addr, "error", err)
			continue
		}
		if delta > bestDelta {
			bestAddr, bestDelta = addr, delta
		}
	}

	if bestAddr == "" {
		s.log.Infow("handler: bootstrap: no peer is ahead, nothing to sync")
		return nil
	}

	return s.syncBlocksFrom(bestAddr, uint64(bestDelta), known)
}

// discover dials addr, sends DiscoverNodes, and registers the connection
// with the dispatch loop so it continues to participate in gossip
// afterward.
func (s *Server) discover(addr string) ([]string, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}

	if err := wire.WriteFrame(conn, &wire.DiscoverNodes{}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sending discover_nodes to %s: %w", addr, err)
	}

	msg, err := wire.ReadFrame(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("reading node_list from %s: %w", addr, err)
	}

	list, ok := msg.(*wire.NodeList)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("%s replied to discover_nodes with %T", addr, msg)
	}

	if s.peers.Add(addr, conn) {
		go s.handleConnection(conn)
	} else {
		conn.Close()
	}

	return list.Addrs, nil
}

// askDifference opens a short-lived connection to addr and asks how many
// blocks ahead of height h it is, closing the connection afterward if it
// was not already a tracked peer.
func (s *Server) askDifference(addr string, h uint64) (int32, error) {
	conn, reused, err := s.dialOrReuse(addr)
	if err != nil {
		return 0, err
	}
	if !reused {
		defer conn.Close()
	}

	if err := wire.WriteFrame(conn, &wire.AskDifference{H: h}); err != nil {
		return 0, fmt.Errorf("sending ask_difference to %s: %w", addr, err)
	}

	msg, err := wire.ReadFrame(conn)
	if err != nil {
		return 0, fmt.Errorf("reading difference from %s: %w", addr, err)
	}

	diff, ok := msg.(*wire.Difference)
	if !ok {
		return 0, fmt.Errorf("%s replied to ask_difference with %T", addr, msg)
	}
	return diff.Delta, nil
}

// syncBlocksFrom pulls blocks [0, count) from addr in order, falling
// through to an arbitrary remaining known peer if a fetch from addr fails.
func (s *Server) syncBlocksFrom(addr string, count uint64, known map[string]struct{}) error {
	remaining := make(map[string]struct{}, len(known))
	for a := range known {
		remaining[a] = struct{}{}
	}

	for i := uint64(0); i < count; {
		blk, err := s.fetchBlock(addr, i)
		if err != nil {
			s.log.Infow("handler: bootstrap: block fetch failed, trying next peer", "addr", addr, "height", i, "error", err)
			delete(remaining, addr)
			next, ok := pickAny(remaining)
			if !ok {
				return fmt.Errorf("bootstrap: exhausted known peers while syncing at height %d", i)
			}
			addr = next
			continue
		}

		if err := s.bc.AppendBlock(blk); err != nil {
			return fmt.Errorf("bootstrap: appending block %d from %s: %w", i, addr, err)
		}
		i++
	}

	return nil
}

func pickAny(set map[string]struct{}) (string, bool) {
	for a := range set {
		return a, true
	}
	return "", false
}

// fetchBlock requests the block at height i from addr over its registered
// peer connection, or over a short-lived one closed afterward if addr is
// not a tracked peer.
func (s *Server) fetchBlock(addr string, i uint64) (blk coin.Block, err error) {
	conn, reused, err := s.dialOrReuse(addr)
	if err != nil {
		return blk, err
	}
	if !reused {
		defer conn.Close()
	}

	if err := wire.WriteFrame(conn, &wire.FetchBlock{I: i}); err != nil {
		return blk, fmt.Errorf("sending fetch_block to %s: %w", addr, err)
	}

	msg, err := wire.ReadFrame(conn)
	if err != nil {
		return blk, fmt.Errorf("reading block %d from %s: %w", i, addr, err)
	}

	nb, ok := msg.(*wire.NewBlock)
	if !ok {
		return blk, fmt.Errorf("%s replied to fetch_block with %T", addr, msg)
	}
	return nb.Block, nil
}

// dialOrReuse returns the already-registered connection to addr if one
// exists, otherwise dials a fresh one. reused reports which happened, so
// the caller knows whether it owns the connection's lifetime.
func (s *Server) dialOrReuse(addr string) (net.Conn, bool, error) {
	for _, p := range s.peers.Copy() {
		if p.Addr == addr {
			return p.Conn, true, nil
		}
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, false, fmt.Errorf("dialing %s: %w", addr, err)
	}
	return conn, false, nil
}
