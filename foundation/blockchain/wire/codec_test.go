package wire_test

import (
	"bytes"
	"testing"

	"github.com/coreledger/coreledger/foundation/blockchain/signature"
	"github.com/coreledger/coreledger/foundation/blockchain/wire"
)

func Test_WriteReadFrame_RoundTrip(t *testing.T) {
	pk, err := signature.GenerateKey()
	if err != nil {
		t.Fatalf("generating key: %s", err)
	}

	var buf bytes.Buffer
	msg := wire.FetchUTXOs{PK: pk.Public()}
	if err := wire.WriteFrame(&buf, msg); err != nil {
		t.Fatalf("writing frame: %s", err)
	}

	got, err := wire.ReadFrame(&buf)
	if err != nil {
		t.Fatalf("reading frame: %s", err)
	}

	fetch, ok := got.(*wire.FetchUTXOs)
	if !ok {
		t.Fatalf("expected *wire.FetchUTXOs, got %T", got)
	}
	if !fetch.PK.Equal(pk.Public()) {
		t.Fatalf("expected round-tripped public key to match")
	}
}

func Test_ReadFrame_TruncatedLengthPrefix(t *testing.T) {
	buf := bytes.NewReader([]byte{1, 2, 3})
	if _, err := wire.ReadFrame(buf); err == nil {
		t.Fatalf("expected an error reading a truncated length prefix")
	}
}

func Test_ReadFrame_MissingBody(t *testing.T) {
	var buf bytes.Buffer
	if err := wire.WriteFrame(&buf, wire.DiscoverNodes{}); err != nil {
		t.Fatalf("writing frame: %s", err)
	}

	data := buf.Bytes()
	// Truncate the frame after its length prefix, so the body the prefix
	// announces never arrives and ReadFrame must fail rather than crash.
	corrupted := data[:8] // keep only the length prefix
	if _, err := wire.ReadFrame(bytes.NewReader(corrupted)); err == nil {
		t.Fatalf("expected an error reading a frame with a missing body")
	}
}

func Test_WriteFrame_RejectsUnregisteredType(t *testing.T) {
	var buf bytes.Buffer
	if err := wire.WriteFrame(&buf, struct{ X int }{}); err == nil {
		t.Fatalf("expected an error writing an unregistered message type")
	}
}
