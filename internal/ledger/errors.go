package ledger

import (
	"errors"
	"fmt"
)

// Kind classifies a ledger failure. Only the protocol layer turns a Kind
// into wire text.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindMissingParams
	KindInvalidAmount
	KindSameAccount
	KindNotFound
	KindLockTimeout
	KindInsufficientFunds
	KindPersistence
	KindUnsupported
	KindProtocol
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindInvalidInput:      "invalid_input",
	KindMissingParams:     "missing_params",
	KindInvalidAmount:     "invalid_amount",
	KindSameAccount:       "same_account",
	KindNotFound:          "not_found",
	KindLockTimeout:       "lock_timeout",
	KindInsufficientFunds: "insufficient_funds",
	KindPersistence:       "persistence",
	KindUnsupported:       "unsupported",
	KindProtocol:          "protocol",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Validation reports whether k rejects a request before any lock is taken.
func (k Kind) Validation() bool {
	switch k {
	case KindInvalidInput, KindMissingParams, KindInvalidAmount, KindSameAccount:
		return true
	}
	return false
}

// Error is a classified ledger failure. Msg is safe to show to the
// coordinator; Err carries the underlying cause for logs.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an Error of kind k with a formatted message.
func Errorf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

func wrap(k Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message returns the coordinator-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal error"
}
