package coin

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/coreledger/coreledger/foundation/blockchain/hash"
	"github.com/coreledger/coreledger/foundation/blockchain/signature"
)

// TransactionInput spends exactly one prior TransactionOutput, identified by
// its content hash, authorized by a signature over that same hash (spec
// §4.2: there is no separate sighash construction, the signed message is
// simply the referenced output's hash).
type TransactionInput struct {
	_              struct{} `cbor:",toarray"`
	PrevOutputHash hash.Hash256
	Sig            signature.Signature
}

// NewInput signs over prevOutputHash with owner and returns the resulting
// input.
func NewInput(prevOutputHash hash.Hash256, owner signature.PrivateKey) (TransactionInput, error) {
	var msg [32]byte
	prevOutputHash.Big().FillBytes(msg[:])

	sig, err := owner.Sign(msg)
	if err != nil {
		return TransactionInput{}, err
	}

	return TransactionInput{
		PrevOutputHash: prevOutputHash,
		Sig:            sig,
	}, nil
}

// Verify reports whether the input's signature authorizes spending an
// output owned by owner, i.e. whether Sig is a valid signature over
// PrevOutputHash by owner.
func (in TransactionInput) Verify(owner signature.PublicKey) bool {
	var msg [32]byte
	in.PrevOutputHash.Big().FillBytes(msg[:])
	return signature.Verify(msg, in.Sig, owner)
}

// MarshalCBOR encodes the input using canonical, deterministic encoding.
func (in TransactionInput) MarshalCBOR() ([]byte, error) {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	type wire TransactionInput
	return mode.Marshal(wire(in))
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (in *TransactionInput) UnmarshalCBOR(data []byte) error {
	type wire TransactionInput
	var w wire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return err
	}
	*in = TransactionInput(w)
	return nil
}
