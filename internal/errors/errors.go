// Package errors defines the closed error taxonomy shared by every
// subsystem of the indexer. Callers match on Kind rather than on error
// strings; the HTTP layer turns a Kind into a status code with ToStatus.
package errors

import (
	"errors"
	"fmt"
)

// Kind identifies which of the closed set of failure categories an Error
// belongs to. New kinds are never added silently — every one must be wired
// into ToStatus.
type Kind int

const (
	// KindUnknown is never assigned by this package's constructors; KindOf
	// returns it for nil errors and errors that carry no taxonomy Kind.
	KindUnknown Kind = iota
	KindInvalidBlockData
	KindInvalidTxData
	KindInvalidChecksum
	KindTendermint
	KindTendermintRPC
	KindDB
	KindConfig
	KindIO
	KindAddrParse
	KindHex
	KindParseInt
	KindParseFloat
	KindSerde
	KindTimeout
	KindSend
	KindJoin
)

func (k Kind) String() string {
	switch k {
	case KindInvalidBlockData:
		return "InvalidBlockData"
	case KindInvalidTxData:
		return "InvalidTxData"
	case KindInvalidChecksum:
		return "InvalidChecksum"
	case KindTendermint:
		return "TendermintError"
	case KindTendermintRPC:
		return "TendermintRpcError"
	case KindDB:
		return "DB"
	case KindConfig:
		return "Config"
	case KindIO:
		return "IO"
	case KindAddrParse:
		return "AddrParse"
	case KindHex:
		return "Hex"
	case KindParseInt:
		return "ParseInt"
	case KindParseFloat:
		return "ParseFloat"
	case KindSerde:
		return "SerdeJson"
	case KindTimeout:
		return "Timeout"
	case KindSend:
		return "SendError"
	case KindJoin:
		return "JoinError"
	default:
		return "Unknown"
	}
}

// Error is the taxonomy's single concrete type: a Kind, the operation that
// failed, and the wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap builds an *Error of the given kind. It returns nil if err is nil, so
// call sites can write `return errors.Wrap(KindDB, "save_block", err)`
// unconditionally after an `if err != nil` guard without a second nil check.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// New constructs an *Error with no wrapped cause.
func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Err: errors.New(msg)}
}

// KindOf extracts the Kind from err, walking the unwrap chain. It returns
// KindUnknown if err is nil or does not carry a taxonomy Kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err's Kind equals kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ToStatus maps a Kind to the HTTP status the read API returns for it:
// invalid hex is a client error, a decode/validation failure of
// already-persisted data is 417, a database failure is 404, and anything
// else is a 500.
func ToStatus(kind Kind) int {
	switch kind {
	case KindHex:
		return 400
	case KindInvalidBlockData, KindInvalidTxData:
		return 417
	case KindDB:
		return 404
	default:
		return 500
	}
}
