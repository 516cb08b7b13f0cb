package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// maxFrameLen bounds a single frame's payload to guard against a malicious
// or corrupt length prefix causing an unbounded allocation.
const maxFrameLen = 64 << 20 // 64 MiB

// canonicalMode is the single CBOR encoder used for every framed message,
// matching the deterministic-encoding requirement applied elsewhere in the
// repo (spec §6, P8).
var canonicalMode = func() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: building canonical encoder: %v", err))
	}
	return mode
}()

// envelope is the tagged union actually written to the wire: a Tag
// byte followed by the CBOR encoding of the matching payload type.
type envelope struct {
	_   struct{} `cbor:",toarray"`
	Tag Tag
	Raw cbor.RawMessage
}

// payloadFor returns a new zero value of the message type associated with
// tag, or false if tag is unknown.
func payloadFor(tag Tag) (any, bool) {
	switch tag {
	case TagFetchUTXOs:
		return &FetchUTXOs{}, true
	case TagUTXOs:
		return &UTXOs{}, true
	case TagSubmitTransaction:
		return &SubmitTransaction{}, true
	case TagNewTransaction:
		return &NewTransaction{}, true
	case TagFetchTemplate:
		return &FetchTemplate{}, true
	case TagTemplate:
		return &Template{}, true
	case TagValidateTemplate:
		return &ValidateTemplate{}, true
	case TagTemplateValidity:
		return &TemplateValidity{}, true
	case TagSubmitTemplate:
		return &SubmitTemplate{}, true
	case TagNewBlock:
		return &NewBlock{}, true
	case TagDiscoverNodes:
		return &DiscoverNodes{}, true
	case TagNodeList:
		return &NodeList{}, true
	case TagAskDifference:
		return &AskDifference{}, true
	case TagDifference:
		return &Difference{}, true
	case TagFetchBlock:
		return &FetchBlock{}, true
	default:
		return nil, false
	}
}

// tagFor returns the Tag matching the concrete type of msg.
func tagFor(msg any) (Tag, bool) {
	switch msg.(type) {
	case *FetchUTXOs, FetchUTXOs:
		return TagFetchUTXOs, true
	case *UTXOs, UTXOs:
		return TagUTXOs, true
	case *SubmitTransaction, SubmitTransaction:
		return TagSubmitTransaction, true
	case *NewTransaction, NewTransaction:
		return TagNewTransaction, true
	case *FetchTemplate, FetchTemplate:
		return TagFetchTemplate, true
	case *Template, Template:
		return TagTemplate, true
	case *ValidateTemplate, ValidateTemplate:
		return TagValidateTemplate, true
	case *TemplateValidity, TemplateValidity:
		return TagTemplateValidity, true
	case *SubmitTemplate, SubmitTemplate:
		return TagSubmitTemplate, true
	case *NewBlock, NewBlock:
		return TagNewBlock, true
	case *DiscoverNodes, DiscoverNodes:
		return TagDiscoverNodes, true
	case *NodeList, NodeList:
		return TagNodeList, true
	case *AskDifference, AskDifference:
		return TagAskDifference, true
	case *Difference, Difference:
		return TagDifference, true
	case *FetchBlock, FetchBlock:
		return TagFetchBlock, true
	default:
		return 0, false
	}
}

// WriteFrame encodes msg as a tagged envelope and writes it to w as a
// little-endian u64 length prefix followed by that many bytes of canonical
// CBOR (spec §6).
func WriteFrame(w io.Writer, msg any) error {
	tag, ok := tagFor(msg)
	if !ok {
		return fmt.Errorf("wire: %T is not a registered message type", msg)
	}

	raw, err := canonicalMode.Marshal(msg)
	if err != nil {
		return fmt.Errorf("wire: encoding payload: %w", err)
	}

	data, err := canonicalMode.Marshal(envelope{Tag: tag, Raw: raw})
	if err != nil {
		return fmt.Errorf("wire: encoding envelope: %w", err)
	}

	var lenPrefix [8]byte
	binary.LittleEndian.PutUint64(lenPrefix[:], uint64(len(data)))

	if _, err := w.Write(lenPrefix[:]); err != nil {
		return fmt.Errorf("wire: writing length prefix: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("wire: writing frame: %w", err)
	}
	return nil
}

// ReadFrame reads one frame from r and decodes it into its concrete
// message type. The returned value is always a pointer to the payload
// struct (e.g. *FetchUTXOs). An unknown tag, truncated frame, or malformed
// length prefix returns an error; callers must terminate the connection in
// that case (spec §6).
func ReadFrame(r io.Reader) (any, error) {
	var lenPrefix [8]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		return nil, fmt.Errorf("wire: reading length prefix: %w", err)
	}

	n := binary.LittleEndian.Uint64(lenPrefix[:])
	if n > maxFrameLen {
		return nil, fmt.Errorf("wire: frame length %d exceeds maximum %d", n, maxFrameLen)
	}

	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("wire: reading frame body: %w", err)
	}

	var env envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("wire: decoding envelope: %w", err)
	}

	payload, ok := payloadFor(env.Tag)
	if !ok {
		return nil, fmt.Errorf("wire: unknown message tag %d", env.Tag)
	}

	if err := cbor.Unmarshal(env.Raw, payload); err != nil {
		return nil, fmt.Errorf("wire: decoding payload for tag %d: %w", env.Tag, err)
	}

	return payload, nil
}
