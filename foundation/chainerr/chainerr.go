// Package chainerr defines the typed error vocabulary the chain engine
// uses to report validation failures (spec §7).
//
// This generalizes the teacher's business/web/errs.Trusted wrapper (a
// single FieldErrors-carrying error type surfaced to HTTP handlers) into a
// Kind-coded error: every kind named in §7 gets an enum value so callers
// at the node dispatcher can switch on failure reason without string
// matching.
package chainerr

import "fmt"

// Kind identifies which named failure occurred.
type Kind int

// The error kinds named in spec §7.
const (
	Unknown Kind = iota
	InvalidTransaction
	InvalidSignature
	UnknownInput
	DuplicateInput
	FeeNotHigherThanReplacement
	InsufficientInputValue
	InvalidMerkleRoot
	InvalidPrevHash
	NonMonotonicTimestamp
	InsufficientProofOfWork
	TargetMismatch
	BadCoinbase
	Serialization
	Io
)

var kindNames = map[Kind]string{
	Unknown:                     "unknown",
	InvalidTransaction:          "invalid_transaction",
	InvalidSignature:            "invalid_signature",
	UnknownInput:                "unknown_input",
	DuplicateInput:              "duplicate_input",
	FeeNotHigherThanReplacement: "fee_not_higher_than_replacement",
	InsufficientInputValue:      "insufficient_input_value",
	InvalidMerkleRoot:           "invalid_merkle_root",
	InvalidPrevHash:             "invalid_prev_hash",
	NonMonotonicTimestamp:       "non_monotonic_timestamp",
	InsufficientProofOfWork:     "insufficient_proof_of_work",
	TargetMismatch:              "target_mismatch",
	BadCoinbase:                 "bad_coinbase",
	Serialization:               "serialization",
	Io:                          "io",
}

// String renders the kind's snake_case name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Error is a chain-engine failure tagged with a Kind so callers can branch
// on failure reason (e.g. the node dispatcher deciding whether to drop a
// connection vs. simply drop a message).
type Error struct {
	Kind Kind
	msg  string
	err  error
}

// New constructs a chainerr.Error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind to an existing error, preserving it for errors.Is
// and errors.As via Unwrap.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, err: err}
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is reports whether target names the same Kind, so callers can write
// errors.Is(err, chainerr.New(chainerr.UnknownInput, "")) style checks, or
// more idiomatically use IsKind below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *Error
	for err != nil {
		if c, ok := err.(*Error); ok {
			ce = c
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ce != nil && ce.Kind == kind
}
