// Package rstore implements store.IStore on top of Redis using go-redis.
//
// Keyed operations map one to one to GET, SET, MGET and KEYS (or SCAN when
// Options.ScanCount is set). Pattern subscriptions use PSUBSCRIBE on a dedicated
// pub/sub connection managed by go-redis, which transparently resubscribes after
// a reconnect. Notifications published while the connection is down are lost;
// this matches the at-most-once semantics of Redis pub/sub.
//
// The store is created with NewRedisStore, which verifies the connection with a
// PING. The caller owns the returned store and must Close it, which also ends
// all subscriptions.
package rstore
