package handler

import (
	"net"
	"testing"

	"go.uber.org/zap"

	"github.com/coreledger/coreledger/foundation/blockchain/chain"
	"github.com/coreledger/coreledger/foundation/blockchain/params"
	"github.com/coreledger/coreledger/foundation/blockchain/signature"
	"github.com/coreledger/coreledger/foundation/blockchain/wire"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	log := zap.NewNop().Sugar()
	bc := chain.New(params.Defaults(), nil)
	return NewServer(bc, "127.0.0.1:9000", log)
}

func mustPK(t *testing.T) signature.PublicKey {
	t.Helper()
	key, err := signature.GenerateKey()
	if err != nil {
		t.Fatalf("generating key: %s", err)
	}
	return key.Public()
}

// Test_FetchUTXOs_EmptyChainRepliesEmptyList exercises the request/reply
// path of dispatch directly over an in-memory pipe, without a real socket.
func Test_FetchUTXOs_EmptyChainRepliesEmptyList(t *testing.T) {
	s := testServer(t)
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	done := make(chan error, 1)
	go func() {
		done <- s.dispatch(server, "client-addr", &wire.FetchUTXOs{PK: mustPK(t)})
	}()

	msg, err := wire.ReadFrame(client)
	if err != nil {
		t.Fatalf("reading reply: %s", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("dispatch: %s", err)
	}

	utxos, ok := msg.(*wire.UTXOs)
	if !ok {
		t.Fatalf("expected *wire.UTXOs, got %T", msg)
	}
	if len(utxos.Entries) != 0 {
		t.Fatalf("expected no entries on an empty chain, got %d", len(utxos.Entries))
	}
}

// Test_DiscoverNodes_RepliesWithSelfAndKnownPeers checks that a bare
// DiscoverNodes request to a node with no known peers is answered with
// exactly this node's own address.
func Test_DiscoverNodes_RepliesWithSelfAndKnownPeers(t *testing.T) {
	s := testServer(t)
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	done := make(chan error, 1)
	go func() {
		done <- s.dispatch(server, "client-addr", &wire.DiscoverNodes{})
	}()

	msg, err := wire.ReadFrame(client)
	if err != nil {
		t.Fatalf("reading reply: %s", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("dispatch: %s", err)
	}

	list, ok := msg.(*wire.NodeList)
	if !ok {
		t.Fatalf("expected *wire.NodeList, got %T", msg)
	}
	if len(list.Addrs) != 1 || list.Addrs[0] != "127.0.0.1:9000" {
		t.Fatalf("expected [self], got %v", list.Addrs)
	}
}

// Test_AskDifference_ReportsHeightDelta checks the arithmetic of the
// difference reply against an empty (height-0) chain.
func Test_AskDifference_ReportsHeightDelta(t *testing.T) {
	s := testServer(t)
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	done := make(chan error, 1)
	go func() {
		done <- s.dispatch(server, "client-addr", &wire.AskDifference{H: 0})
	}()

	msg, err := wire.ReadFrame(client)
	if err != nil {
		t.Fatalf("reading reply: %s", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("dispatch: %s", err)
	}

	diff, ok := msg.(*wire.Difference)
	if !ok {
		t.Fatalf("expected *wire.Difference, got %T", msg)
	}
	if diff.Delta != 0 {
		t.Fatalf("expected delta 0 on an empty chain asked about height 0, got %d", diff.Delta)
	}
}

// Test_FetchBlock_UnknownHeightIsRejected checks that asking for a block
// beyond the chain's height returns an error rather than a reply frame.
func Test_FetchBlock_UnknownHeightIsRejected(t *testing.T) {
	s := testServer(t)
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	_ = client

	err := s.dispatch(server, "client-addr", &wire.FetchBlock{I: 5})
	if err == nil {
		t.Fatalf("expected an error fetching a block past the chain's height")
	}
}
