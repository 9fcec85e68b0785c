// Package server implements the relay server: it accepts client connections
// through a transport, turns every connection into a relay session and serves
// the HTTP api next to it.
//
// The package focuses on:
//   - Connection handling: one session per connection, requests dispatched concurrently
//   - Ordered, bounded delivery of acks and events per connection
//   - The HTTP surface: info, health and metrics routes plus the websocket endpoint
//   - Lifecycle: the HTTP server, the transport and the change listener run in an
//     errgroup and stop together
//
// Key Components:
//
//   - RPCServer: Created with NewRPCServer from a config, a transport, a serializer
//     and the store. Serve (or ServeListener) runs until the context is done.
//
//   - connection: The relay.Peer of a client. Events and acks are queued in a
//     channel of ServerConfig.SendBuffer entries and written by a single writer
//     goroutine. Request path emissions wait for queue space, broadcast
//     emissions are dropped if the queue is full.
//
// HTTP Routes:
//
//	GET /                    "OK from data-socket"
//	GET /api/data-socket/    "hello from data-socket QA|PROD"
//	GET /api/data-socket/v   "<version> --QA|PROD"
//	GET /healthz             200 if the store answers a ping, 503 otherwise
//	GET /metrics             Prometheus text format (VictoriaMetrics)
//	GET <socket path>        websocket upgrade (ws transport only)
//
// Session ids are ULIDs, so they sort by connection time in the logs.
//
// Thread Safety:
//
//	The server handles connections and requests concurrently. Requests of one
//	connection run in parallel up to ServerConfig.WorkersPerConn; their acks are
//	written in completion order. Serve must only be called once.
package server
