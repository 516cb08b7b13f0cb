// Package signature provides key generation, ECDSA sign/verify, and the
// encoded persistence forms the blockchain needs for public keys, private
// keys, and signatures.
//
// This is adapted from the teacher's Ethereum-style recoverable-signature
// scheme: the spec's signing model verifies a message against an explicit,
// already-known public key (the one recorded on the UTXO being spent),
// rather than recovering a public key from the signature, so the v/r/s
// recovery-id plumbing is dropped in favor of plain ECDSA.
package signature

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fxamacker/cbor/v2"
)

// curve returns the secp256k1 curve used for all blockchain keys. Go's
// standard library only ships NIST curves, so this borrows go-ethereum's
// implementation rather than hand-rolling curve parameters.
func curve() elliptic.Curve {
	return crypto.S256()
}

// secp256k1OID is the object identifier for the secp256k1 named curve,
// assigned by SEC 2 and used by RFC 5480-style SubjectPublicKeyInfo
// structures. crypto/x509 does not know this curve, so PublicKey implements
// the encoding by hand below.
var secp256k1OID = asn1.ObjectIdentifier{1, 3, 132, 0, 10}

// ecPublicKeyOID is the id-ecPublicKey algorithm identifier (RFC 5480 §2.1.1).
var ecPublicKeyOID = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}

// PublicKey is the sole authorized spender of a UTXO.
type PublicKey struct {
	key *ecdsa.PublicKey
}

// PrivateKey can sign messages and derives a PublicKey.
type PrivateKey struct {
	key *ecdsa.PrivateKey
}

// Signature is the result of signing a message; it is a single secp256k1
// ECDSA signature in fixed-width (R || S) form.
type Signature struct {
	R, S *big.Int
}

// =============================================================================

// GenerateKey creates a new random private key.
func GenerateKey() (PrivateKey, error) {
	key, err := ecdsa.GenerateKey(curve(), rand.Reader)
	if err != nil {
		return PrivateKey{}, fmt.Errorf("signature: generating key: %w", err)
	}
	return PrivateKey{key: key}, nil
}

// Public returns the public half of the key pair.
func (pk PrivateKey) Public() PublicKey {
	return PublicKey{key: &pk.key.PublicKey}
}

// Sign signs the 32-byte message hash. For transaction inputs the message is
// the prev_output_hash of that input (§4.2: no separate sighash).
func (pk PrivateKey) Sign(msgHash [32]byte) (Signature, error) {
	r, s, err := ecdsa.Sign(rand.Reader, pk.key, msgHash[:])
	if err != nil {
		return Signature{}, fmt.Errorf("signature: signing: %w", err)
	}
	return Signature{R: r, S: s}, nil
}

// Verify reports whether sig is a valid signature over msgHash by the
// private key corresponding to pub.
func Verify(msgHash [32]byte, sig Signature, pub PublicKey) bool {
	if pub.key == nil || sig.R == nil || sig.S == nil {
		return false
	}
	return ecdsa.Verify(pub.key, msgHash[:], sig.R, sig.S)
}

// =============================================================================
// Encoded persistence.

// MarshalBinary encodes the private key as a fixed-width big-endian scalar,
// matching the deterministic-binary requirement of §6.
func (pk PrivateKey) MarshalBinary() ([]byte, error) {
	if pk.key == nil {
		return nil, errors.New("signature: nil private key")
	}
	b := make([]byte, 32)
	pk.key.D.FillBytes(b)
	return b, nil
}

// UnmarshalBinary restores a private key from MarshalBinary's output.
func (pk *PrivateKey) UnmarshalBinary(data []byte) error {
	if len(data) != 32 {
		return fmt.Errorf("signature: private key must be 32 bytes, got %d", len(data))
	}

	d := new(big.Int).SetBytes(data)
	c := curve()
	x, y := c.ScalarBaseMult(data)

	pk.key = &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: c, X: x, Y: y},
		D:         d,
	}
	return nil
}

// spki mirrors crypto/x509.pkix.PublicKeyInfo but is encoded by hand since
// x509 doesn't carry the secp256k1 OID.
type spki struct {
	Algorithm pkix.AlgorithmIdentifier
	PublicKey asn1.BitString
}

// MarshalSPKI encodes the public key as a DER SubjectPublicKeyInfo using the
// id-ecPublicKey algorithm with secp256k1 domain parameters, then PEM-wraps
// it as a "PUBLIC KEY" block (§4.2, §6).
func (pub PublicKey) MarshalSPKI() ([]byte, error) {
	if pub.key == nil {
		return nil, errors.New("signature: nil public key")
	}

	point := elliptic.Marshal(pub.key.Curve, pub.key.X, pub.key.Y)

	algoParams, err := asn1.Marshal(secp256k1OID)
	if err != nil {
		return nil, fmt.Errorf("signature: encoding curve OID: %w", err)
	}

	der, err := asn1.Marshal(spki{
		Algorithm: pkix.AlgorithmIdentifier{
			Algorithm:  ecPublicKeyOID,
			Parameters: asn1.RawValue{FullBytes: algoParams},
		},
		PublicKey: asn1.BitString{Bytes: point, BitLength: len(point) * 8},
	})
	if err != nil {
		return nil, fmt.Errorf("signature: encoding SPKI: %w", err)
	}

	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}
	return pem.EncodeToMemory(block), nil
}

// ParseSPKI decodes the PEM/DER form produced by MarshalSPKI.
func ParseSPKI(data []byte) (PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return PublicKey{}, errors.New("signature: invalid PEM block")
	}

	var info spki
	if _, err := asn1.Unmarshal(block.Bytes, &info); err != nil {
		return PublicKey{}, fmt.Errorf("signature: decoding SPKI: %w", err)
	}

	if !info.Algorithm.Algorithm.Equal(ecPublicKeyOID) {
		return PublicKey{}, fmt.Errorf("signature: unsupported algorithm OID %s", info.Algorithm.Algorithm)
	}

	c := curve()
	x, y := elliptic.Unmarshal(c, info.PublicKey.Bytes)
	if x == nil {
		return PublicKey{}, errors.New("signature: invalid curve point")
	}

	return PublicKey{key: &ecdsa.PublicKey{Curve: c, X: x, Y: y}}, nil
}

// MarshalCBOR encodes the public key as a CBOR byte string containing its
// PEM/SPKI form, so PublicKey can be embedded directly in wire messages.
func (pub PublicKey) MarshalCBOR() ([]byte, error) {
	pemBytes, err := pub.MarshalSPKI()
	if err != nil {
		return nil, err
	}
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	return mode.Marshal(pemBytes)
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (pub *PublicKey) UnmarshalCBOR(data []byte) error {
	var pemBytes []byte
	if err := cbor.Unmarshal(data, &pemBytes); err != nil {
		return err
	}
	parsed, err := ParseSPKI(pemBytes)
	if err != nil {
		return err
	}
	*pub = parsed
	return nil
}

// Equal reports whether two public keys represent the same point.
func (pub PublicKey) Equal(other PublicKey) bool {
	if pub.key == nil || other.key == nil {
		return pub.key == other.key
	}
	return pub.key.X.Cmp(other.key.X) == 0 && pub.key.Y.Cmp(other.key.Y) == 0
}

// String renders the public key's SPKI PEM form, or "<nil>" if unset.
func (pub PublicKey) String() string {
	data, err := pub.MarshalSPKI()
	if err != nil {
		return "<nil>"
	}
	return string(data)
}

// MarshalCBOR encodes a Signature deterministically as a fixed-width
// two-element byte-string array (R, S), each 32 bytes big-endian.
func (sig Signature) MarshalCBOR() ([]byte, error) {
	if sig.R == nil || sig.S == nil {
		return nil, errors.New("signature: nil signature component")
	}
	r := make([]byte, 32)
	s := make([]byte, 32)
	sig.R.FillBytes(r)
	sig.S.FillBytes(s)

	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	return mode.Marshal([2][]byte{r, s})
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (sig *Signature) UnmarshalCBOR(data []byte) error {
	var rs [2][]byte
	if err := cbor.Unmarshal(data, &rs); err != nil {
		return err
	}
	sig.R = new(big.Int).SetBytes(rs[0])
	sig.S = new(big.Int).SetBytes(rs[1])
	return nil
}
