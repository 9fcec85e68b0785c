// Package store provides the interface to the shared key-value store that the
// relay bridges to its clients. The store is both a keyed document store (records
// addressed by "<collection>:<documentId>" or by arbitrary keys) and a
// publish/subscribe bus (change notifications and write requests).
//
// The package focuses on:
//   - A unified interface (IStore) for keyed access and pub/sub across different backends
//   - Structured error reporting through the Error type and RetCode values
//
// Key Components:
//
//   - IStore Interface: The core abstraction used by the relay. It offers Get, Set,
//     MGet, Keys (listing by literal prefix), Publish and PSubscribe (glob pattern
//     subscriptions), plus Ping for health checks and Close for the explicit
//     lifecycle of the underlying connections.
//
//   - ISubscription: An open pattern subscription delivering Notification values
//     until it is closed.
//
//   - Error System: A structured error with typed RetCode values. Implementations
//     wrap backend errors so callers can tell an unreachable store (RetCUnavailable)
//     from a closed one (RetCClosed) or an internal failure.
//
// Implementations:
//
//   - Redis Store (rstore): The production implementation using go-redis.
//     Available in the "github.com/akeylesspro/nx-data-socket/lib/store/rstore" package.
//
//   - Memory Store (mstore): A single-process implementation with an in-process
//     pub/sub bus. Suitable for development and tests.
//     Available in the "github.com/akeylesspro/nx-data-socket/lib/store/mstore" package.
//
// A conformance suite for implementations lives in the
// "github.com/akeylesspro/nx-data-socket/lib/store/testing" package.
package store
