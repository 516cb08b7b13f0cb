// Package handler implements the node's per-connection P2P dispatch loop:
// the message-driven state machine of spec §4.12 that serves wallets and
// miners and gossips blocks and transactions to other nodes.
package handler

import (
	"net"

	"go.uber.org/zap"

	"github.com/coreledger/coreledger/foundation/blockchain/chain"
	"github.com/coreledger/coreledger/foundation/blockchain/peer"
	"github.com/coreledger/coreledger/foundation/blockchain/wire"
)

// Server owns the chain state and peer registry every connection's
// dispatch loop reads and writes through.
type Server struct {
	bc    *chain.Blockchain
	peers *peer.Set
	log   *zap.SugaredLogger
	self  string
}

// NewServer constructs a Server bound to bc, listening as self (this
// node's own dial-back address, advertised via DiscoverNodes).
func NewServer(bc *chain.Blockchain, self string, log *zap.SugaredLogger) *Server {
	return &Server{
		bc:    bc,
		peers: peer.NewSet(),
		log:   log,
		self:  self,
	}
}

// Serve accepts connections on ln until it is closed, handling each on its
// own goroutine (spec §4.12: "concurrent connections are served
// independently with shared access to chain state").
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.handleConnection(conn)
	}
}

// handleConnection runs the per-connection dispatch loop: receive one
// framed message, dispatch based on tag, write one framed response where
// the protocol defines one, loop (spec §4.12).
func (s *Server) handleConnection(conn net.Conn) {
	addr := conn.RemoteAddr().String()
	s.peers.Add(addr, conn)

	defer func() {
		s.peers.Remove(addr)
		conn.Close()
	}()

	for {
		msg, err := wire.ReadFrame(conn)
		if err != nil {
			s.log.Infow("handler: connection terminated", "addr", addr, "error", err)
			return
		}

		if err := s.dispatch(conn, addr, msg); err != nil {
			s.log.Infow("handler: dispatch error, dropping message", "addr", addr, "error", err)
		}
	}
}

// dispatch routes one decoded message to its handler per the table in
// spec §4.12.
func (s *Server) dispatch(conn net.Conn, fromAddr string, msg any) error {
	switch m := msg.(type) {
	case *wire.FetchUTXOs:
		return s.handleFetchUTXOs(conn, m)
	case *wire.SubmitTransaction:
		return s.handleSubmitTransaction(fromAddr, m)
	case *wire.NewTransaction:
		return s.handleNewTransaction(fromAddr, m)
	case *wire.FetchTemplate:
		return s.handleFetchTemplate(conn, m)
	case *wire.ValidateTemplate:
		return s.handleValidateTemplate(conn, m)
	case *wire.SubmitTemplate:
		return s.handleSubmitTemplate(fromAddr, m)
	case *wire.NewBlock:
		return s.handleNewBlock(fromAddr, m)
	case *wire.DiscoverNodes:
		return s.handleDiscoverNodes(conn)
	case *wire.AskDifference:
		return s.handleAskDifference(conn, m)
	case *wire.FetchBlock:
		return s.handleFetchBlock(conn, m)
	default:
		return errUnhandledMessage(m)
	}
}

func errUnhandledMessage(m any) error {
	return &unhandledMessageError{msg: m}
}

type unhandledMessageError struct {
	msg any
}

func (e *unhandledMessageError) Error() string {
	return "handler: no registered handler for message type"
}

// broadcast gossips msg to every connected peer except skip (the sender,
// so messages are not echoed back to their origin).
func (s *Server) broadcast(msg any, skipAddr string) {
	for _, p := range s.peers.Copy() {
		if p.Addr == skipAddr {
			continue
		}
		if err := wire.WriteFrame(p.Conn, msg); err != nil {
			s.log.Infow("handler: broadcast failed, dropping peer", "addr", p.Addr, "error", err)
			s.peers.Remove(p.Addr)
		}
	}
}

// toWireEntries adapts the chain package's UTXOView projections to the wire
// protocol's UTXOEntry values.
func toWireEntries(views []chain.UTXOView) []wire.UTXOEntry {
	out := make([]wire.UTXOEntry, len(views))
	for i, v := range views {
		out[i] = wire.UTXOEntry{Output: v.Output, Marked: v.Marked}
	}
	return out
}
