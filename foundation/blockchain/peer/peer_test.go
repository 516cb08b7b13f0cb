package peer_test

import (
	"net"
	"testing"

	"github.com/coreledger/coreledger/foundation/blockchain/peer"
)

func Test_AddRejectsDuplicate(t *testing.T) {
	s := peer.NewSet()
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	if !s.Add("10.0.0.1:9000", c1) {
		t.Fatalf("expected first Add to succeed")
	}
	if s.Add("10.0.0.1:9000", c2) {
		t.Fatalf("expected duplicate Add to be rejected")
	}
	if s.Len() != 1 {
		t.Fatalf("expected exactly one peer, got %d", s.Len())
	}
}

func Test_RemoveThenHas(t *testing.T) {
	s := peer.NewSet()
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	s.Add("10.0.0.2:9000", c1)
	if !s.Has("10.0.0.2:9000") {
		t.Fatalf("expected peer to be present")
	}

	s.Remove("10.0.0.2:9000")
	if s.Has("10.0.0.2:9000") {
		t.Fatalf("expected peer to be removed")
	}
}

func Test_CopyIsSnapshot(t *testing.T) {
	s := peer.NewSet()
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	s.Add("10.0.0.3:9000", c1)
	snap := s.Copy()
	s.Remove("10.0.0.3:9000")

	if len(snap) != 1 {
		t.Fatalf("expected snapshot to retain the peer present at copy time")
	}
	if s.Len() != 0 {
		t.Fatalf("expected live set to reflect the subsequent removal")
	}
}
