// Package mstore implements a local, in-memory, single-process key-value store with
// an in-process publish/subscribe bus, based on the store.IStore interface. Data is
// stored entirely in memory and is not persisted between process restarts.
//
// Key Features:
//   - Pure in-memory storage without persistence
//   - Pattern subscriptions with the same glob syntax the relay uses against Redis
//   - Thread-safe operations for concurrent access
//
// Implementation Details:
//
//   - Storage: Values live in an xsync.MapOf, which shards keys internally and
//     allows lock-free reads. Values are copied on the way in and out, so callers
//     can reuse their buffers.
//
//   - Pub/Sub: Every subscription owns a buffered channel. Publish never blocks:
//     if a subscription's buffer is full the notification is dropped and a warning
//     is logged, mirroring the at-most-once delivery of Redis pub/sub.
//
//   - Lifecycle: Close closes all open subscriptions; every later call returns a
//     store.Error with code RetCClosed.
//
// Usage Example:
//
//	s := mstore.NewMemoryStore()
//	defer s.Close()
//
//	sub, _ := s.PSubscribe(ctx, "data_update:*")
//	_ = s.Publish(ctx, "data_update:units:1", []byte(`{"id":"1"}`))
//	n := <-sub.Notifications()
//
// Suitable Use Cases:
//
//	The memory store is ideal for:
//	- Testing and development environments
//	- Running a single relay without an external store
//
// For shared deployments use the rstore package, which talks to Redis.
package mstore
