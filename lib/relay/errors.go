package relay

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Error Kinds
// --------------------------------------------------------------------------

// ErrorKind classifies failures on the request and propagation paths.
type ErrorKind uint8

const (
	KindValidation ErrorKind = iota + 1 // a required field is absent or malformed, the store was not touched
	KindStore                           // the backing store failed
	KindDecode                          // a stored value or notification is not valid JSON
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindStore:
		return "store"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Error Type
// --------------------------------------------------------------------------

// Error is the error type returned by all relay operations.
// Msg is safe to show to clients, Err holds the cause (if any) for logging.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// validationError creates an Error of kind KindValidation
func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg}
}

// storeError creates an Error of kind KindStore
func storeError(msg string, err error) *Error {
	return &Error{Kind: KindStore, Msg: msg, Err: err}
}

// decodeError creates an Error of kind KindDecode
func decodeError(msg string, err error) *Error {
	return &Error{Kind: KindDecode, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or 0 if err is not a relay Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
