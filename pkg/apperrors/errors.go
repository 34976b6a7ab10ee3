// Package apperrors defines the error-kind taxonomy shared across chainkit
// packages. Every layer wraps the underlying cause with fmt.Errorf("...: %w")
// and tags it with a Kind so callers that need kind-based dispatch (ABCI
// response codes, fee logic) can recover it with errors.Is/errors.As without
// string matching.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the categories the app state machine,
// VM host, and storage layers need to distinguish.
type Kind int

const (
	KindUnknown Kind = iota
	KindSerialize
	KindDeserialize
	KindNotFound
	KindOutOfGas
	KindUnauthorized
	KindVm
	KindDb
	KindMerkle
	KindContract
	KindIndexer
)

func (k Kind) String() string {
	switch k {
	case KindSerialize:
		return "serialize"
	case KindDeserialize:
		return "deserialize"
	case KindNotFound:
		return "not_found"
	case KindOutOfGas:
		return "out_of_gas"
	case KindUnauthorized:
		return "unauthorized"
	case KindVm:
		return "vm_error"
	case KindDb:
		return "db_error"
	case KindMerkle:
		return "merkle_error"
	case KindContract:
		return "contract_error"
	case KindIndexer:
		return "indexer"
	default:
		return "unknown"
	}
}

// Error is a Kind-tagged error that wraps an underlying cause.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf recovers the Kind of err if it (or something it wraps) is an *Error,
// and KindUnknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Sentinel errors used with errors.Is across packages, following the
// teacher's ledger/database packages' one-sentinel-per-condition convention.
var (
	ErrNotFound       = errors.New("not found")
	ErrOutOfGas       = errors.New("out of gas")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrPendingExists  = errors.New("a batch is already pending commit")
	ErrReadOnly       = errors.New("store is read-only in this context")
	ErrReentrancy     = errors.New("reentrancy depth exceeded")
	ErrVersionPruned  = errors.New("requested version has been pruned")
	ErrNoSuchVersion  = errors.New("no such version")
	ErrInvalidProof   = errors.New("invalid merkle proof")
	ErrNilRoot        = errors.New("tree has no root at this version")
)
