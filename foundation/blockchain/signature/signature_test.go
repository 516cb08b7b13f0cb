package signature_test

import (
	"testing"

	"github.com/coreledger/coreledger/foundation/blockchain/signature"
)

func Test_SignVerify(t *testing.T) {
	pk, err := signature.GenerateKey()
	if err != nil {
		t.Fatalf("generating key: %s", err)
	}

	var msg [32]byte
	copy(msg[:], []byte("prev-output-hash-placeholder..."))

	sig, err := pk.Sign(msg)
	if err != nil {
		t.Fatalf("signing: %s", err)
	}

	if !signature.Verify(msg, sig, pk.Public()) {
		t.Fatalf("expected signature to verify against its own public key")
	}

	other, err := signature.GenerateKey()
	if err != nil {
		t.Fatalf("generating key: %s", err)
	}
	if signature.Verify(msg, sig, other.Public()) {
		t.Fatalf("expected signature to not verify against a different public key")
	}
}

func Test_SPKIRoundTrip(t *testing.T) {
	pk, err := signature.GenerateKey()
	if err != nil {
		t.Fatalf("generating key: %s", err)
	}

	pemBytes, err := pk.Public().MarshalSPKI()
	if err != nil {
		t.Fatalf("marshal SPKI: %s", err)
	}

	parsed, err := signature.ParseSPKI(pemBytes)
	if err != nil {
		t.Fatalf("parse SPKI: %s", err)
	}

	if !parsed.Equal(pk.Public()) {
		t.Fatalf("expected round-tripped public key to equal original")
	}
}

func Test_PrivateKeyBinaryRoundTrip(t *testing.T) {
	pk, err := signature.GenerateKey()
	if err != nil {
		t.Fatalf("generating key: %s", err)
	}

	data, err := pk.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal binary: %s", err)
	}

	var restored signature.PrivateKey
	if err := restored.UnmarshalBinary(data); err != nil {
		t.Fatalf("unmarshal binary: %s", err)
	}

	if !restored.Public().Equal(pk.Public()) {
		t.Fatalf("expected restored key to derive the same public key")
	}
}

func Test_CBORRoundTrip(t *testing.T) {
	pk, err := signature.GenerateKey()
	if err != nil {
		t.Fatalf("generating key: %s", err)
	}

	data, err := pk.Public().MarshalCBOR()
	if err != nil {
		t.Fatalf("marshal cbor: %s", err)
	}

	var got signature.PublicKey
	if err := got.UnmarshalCBOR(data); err != nil {
		t.Fatalf("unmarshal cbor: %s", err)
	}

	if !got.Equal(pk.Public()) {
		t.Fatalf("expected cbor round trip to preserve the key")
	}

	var msg [32]byte
	copy(msg[:], "another message to be signed...")
	sig, err := pk.Sign(msg)
	if err != nil {
		t.Fatalf("signing: %s", err)
	}

	sigData, err := sig.MarshalCBOR()
	if err != nil {
		t.Fatalf("marshal sig cbor: %s", err)
	}

	var gotSig signature.Signature
	if err := gotSig.UnmarshalCBOR(sigData); err != nil {
		t.Fatalf("unmarshal sig cbor: %s", err)
	}

	if !signature.Verify(msg, gotSig, pk.Public()) {
		t.Fatalf("expected round-tripped signature to verify")
	}
}
