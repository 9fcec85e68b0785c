package store

import (
	"context"
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is the interface for the shared key–value store the relay proxies.
// It covers the keyed operations (get, set, bulk get, listing by prefix) and
// the publish/subscribe side of the store. Values are opaque byte slices; the
// relay stores JSON documents in them.
//
// All methods return a *Error (wrapped as error, nil on success).
type IStore interface {
	// Get returns the value for a key. The boolean return value indicates whether a value for the key was found.
	Get(ctx context.Context, key string) (value []byte, loaded bool, err error)
	// Set inserts or updates a key–value pair.
	Set(ctx context.Context, key string, value []byte) (err error)
	// MGet returns the values for all keys in the same order as the keys.
	// A missing key results in a nil entry.
	MGet(ctx context.Context, keys []string) (values [][]byte, err error)
	// Keys lists all keys starting with prefix. The prefix is matched literally.
	Keys(ctx context.Context, prefix string) (keys []string, err error)
	// Publish sends a message to a channel. It returns once the store accepted the message.
	Publish(ctx context.Context, channel string, message []byte) (err error)
	// PSubscribe subscribes to all channels matching a glob pattern (e.g. "data_update:*").
	// Notifications are delivered until the subscription or the store is closed.
	PSubscribe(ctx context.Context, pattern string) (sub ISubscription, err error)
	// Ping checks whether the store is reachable.
	Ping(ctx context.Context) (err error)
	// Close releases all resources held by the store. Open subscriptions are closed.
	Close() (err error)
}

// ISubscription is an open pattern subscription on the store.
type ISubscription interface {
	// Notifications returns the channel on which notifications are delivered.
	// The channel is closed when the subscription ends.
	Notifications() <-chan Notification
	// Close ends the subscription.
	Close() error
}

// Notification is a single message received through a pattern subscription.
type Notification struct {
	Pattern string // The pattern that matched
	Channel string // The channel the message was published to
	Payload []byte // The raw message
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode),
// an error message and the underlying cause (if any).
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
	Err  error   // The underlying error, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("StoreError (code %s): %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new store Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// WrapError creates a new store Error with the given code and message wrapping err.
func WrapError(code RetCode, msg string, err error) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
		Err:  err,
	}
}

// IsCode reports whether err is a store Error with the given code.
func IsCode(err error, code RetCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by the store.
	RetCInvalidOperation                    // 3: Invalid operation.
	RetCUnavailable                         // 4: The store could not be reached.
	RetCClosed                              // 5: The store was already closed.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCUnavailable:
		return "Unavailable"
	case RetCClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}
