// Package wire implements the P2P message set and its length-prefixed
// binary framing (spec §4.12, §6).
//
// This is grounded on lnd's lnwire package: a closed, tag-dispatched
// message set written to and read from a net.Conn behind a length prefix.
// Where lnwire hand-rolls a binary encoder per message type, this uses
// canonical CBOR (the codec already adopted for every other on-wire and
// on-disk value in this repo) so the framing layer only has to manage the
// length prefix and the tag byte.
package wire

import (
	"github.com/coreledger/coreledger/foundation/blockchain/coin"
	"github.com/coreledger/coreledger/foundation/blockchain/signature"
)

// Tag identifies which message variant follows the frame's length prefix.
type Tag uint8

// The closed message set of spec §4.12.
const (
	TagFetchUTXOs Tag = iota + 1
	TagUTXOs
	TagSubmitTransaction
	TagNewTransaction
	TagFetchTemplate
	TagTemplate
	TagValidateTemplate
	TagTemplateValidity
	TagSubmitTemplate
	TagNewBlock
	TagDiscoverNodes
	TagNodeList
	TagAskDifference
	TagDifference
	TagFetchBlock
)

// FetchUTXOs: wallet -> node. Requests every UTXO owned by PK.
type FetchUTXOs struct {
	_  struct{} `cbor:",toarray"`
	PK signature.PublicKey
}

// UTXOEntry pairs an output with whether a mempool transaction currently
// marks it as reserved.
type UTXOEntry struct {
	_      struct{} `cbor:",toarray"`
	Output coin.TransactionOutput
	Marked bool
}

// UTXOs: node -> wallet. Reply to FetchUTXOs.
type UTXOs struct {
	_       struct{} `cbor:",toarray"`
	Entries []UTXOEntry
}

// SubmitTransaction: wallet -> node. No reply; admission result is only
// observable via subsequent FetchUTXOs calls or NewTransaction gossip.
type SubmitTransaction struct {
	_  struct{} `cbor:",toarray"`
	Tx coin.Transaction
}

// NewTransaction: peer -> node. Gossiped transaction.
type NewTransaction struct {
	_  struct{} `cbor:",toarray"`
	Tx coin.Transaction
}

// FetchTemplate: miner -> node. Requests a candidate block paying PK.
type FetchTemplate struct {
	_  struct{} `cbor:",toarray"`
	PK signature.PublicKey
}

// Template: node -> miner. Reply to FetchTemplate.
type Template struct {
	_     struct{} `cbor:",toarray"`
	Block coin.Block
}

// ValidateTemplate: miner -> node. Asks whether an in-progress template is
// still buildable on the current tip/target/UTXO set.
type ValidateTemplate struct {
	_     struct{} `cbor:",toarray"`
	Block coin.Block
}

// TemplateValidity: node -> miner. Reply to ValidateTemplate.
type TemplateValidity struct {
	_     struct{} `cbor:",toarray"`
	Valid bool
}

// SubmitTemplate: miner -> node. A solved block. No reply.
type SubmitTemplate struct {
	_     struct{} `cbor:",toarray"`
	Block coin.Block
}

// NewBlock: peer -> node (gossip), or node -> node (reply to FetchBlock).
type NewBlock struct {
	_     struct{} `cbor:",toarray"`
	Block coin.Block
}

// DiscoverNodes: node -> node. Requests known peer addresses.
type DiscoverNodes struct {
	_ struct{} `cbor:",toarray"`
}

// NodeList: node -> node. Reply to DiscoverNodes.
type NodeList struct {
	_     struct{} `cbor:",toarray"`
	Addrs []string
}

// AskDifference: node -> node. Asks how far ahead the remote is past
// height H.
type AskDifference struct {
	_ struct{} `cbor:",toarray"`
	H uint64
}

// Difference: node -> node. Reply to AskDifference: local_height - H,
// signed since the asker may be ahead.
type Difference struct {
	_     struct{} `cbor:",toarray"`
	Delta int32
}

// FetchBlock: node -> node. Requests the block at height I.
type FetchBlock struct {
	_ struct{} `cbor:",toarray"`
	I uint64
}
