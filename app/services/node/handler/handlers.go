package handler

import (
	"fmt"
	"net"

	"github.com/coreledger/coreledger/foundation/blockchain/wire"
)

// handleFetchUTXOs replies with every UTXO owned by m.PK (spec §4.12).
func (s *Server) handleFetchUTXOs(conn net.Conn, m *wire.FetchUTXOs) error {
	views := s.bc.UTXOsFor(m.PK)
	return wire.WriteFrame(conn, &wire.UTXOs{Entries: toWireEntries(views)})
}

// handleSubmitTransaction admits a wallet-submitted transaction to the
// mempool and, on success, gossips it onward as NewTransaction.
func (s *Server) handleSubmitTransaction(fromAddr string, m *wire.SubmitTransaction) error {
	if _, err := s.bc.SubmitTransaction(m.Tx); err != nil {
		return err
	}
	s.broadcast(&wire.NewTransaction{Tx: m.Tx}, fromAddr)
	return nil
}

// handleNewTransaction admits a peer-gossiped transaction and relays it
// further, excluding the peer it arrived from.
func (s *Server) handleNewTransaction(fromAddr string, m *wire.NewTransaction) error {
	if _, err := s.bc.SubmitTransaction(m.Tx); err != nil {
		return err
	}
	s.broadcast(&wire.NewTransaction{Tx: m.Tx}, fromAddr)
	return nil
}

// handleFetchTemplate replies with a fresh candidate block paying m.PK.
func (s *Server) handleFetchTemplate(conn net.Conn, m *wire.FetchTemplate) error {
	tmpl, err := s.bc.BuildTemplate(m.PK)
	if err != nil {
		return err
	}
	return wire.WriteFrame(conn, &wire.Template{Block: tmpl})
}

// handleValidateTemplate replies with whether a miner's in-progress
// template is still buildable on the current chain state.
func (s *Server) handleValidateTemplate(conn net.Conn, m *wire.ValidateTemplate) error {
	valid := s.bc.ValidateTemplate(m.Block)
	return wire.WriteFrame(conn, &wire.TemplateValidity{Valid: valid})
}

// handleSubmitTemplate appends a miner's solved block and, on success,
// gossips it onward as NewBlock.
func (s *Server) handleSubmitTemplate(fromAddr string, m *wire.SubmitTemplate) error {
	if err := s.bc.AppendBlock(m.Block); err != nil {
		return err
	}
	s.broadcast(&wire.NewBlock{Block: m.Block}, fromAddr)
	return nil
}

// handleNewBlock appends a peer-gossiped block and relays it further. A
// block that fails validation (e.g. it extends a height this node has
// already moved past) is simply dropped per spec §4.5 — no reorg.
func (s *Server) handleNewBlock(fromAddr string, m *wire.NewBlock) error {
	if err := s.bc.AppendBlock(m.Block); err != nil {
		return err
	}
	s.broadcast(&wire.NewBlock{Block: m.Block}, fromAddr)
	return nil
}

// handleDiscoverNodes replies with every peer address this node currently
// knows about, plus its own dial-back address.
func (s *Server) handleDiscoverNodes(conn net.Conn) error {
	addrs := []string{s.self}
	for _, p := range s.peers.Copy() {
		addrs = append(addrs, p.Addr)
	}
	return wire.WriteFrame(conn, &wire.NodeList{Addrs: addrs})
}

// handleAskDifference replies with how far ahead of m.H the local chain is.
func (s *Server) handleAskDifference(conn net.Conn, m *wire.AskDifference) error {
	delta := int64(s.bc.Height()) - int64(m.H)
	return wire.WriteFrame(conn, &wire.Difference{Delta: int32(delta)})
}

// handleFetchBlock replies with the block at height m.I, if present.
func (s *Server) handleFetchBlock(conn net.Conn, m *wire.FetchBlock) error {
	blk, ok := s.bc.Block(m.I)
	if !ok {
		return fmt.Errorf("handler: no block at height %d", m.I)
	}
	return wire.WriteFrame(conn, &wire.NewBlock{Block: blk})
}
