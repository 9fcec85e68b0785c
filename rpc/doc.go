// Package rpc contains the network side of the relay: the wire protocol, the
// server that bridges client connections to the relay and a Go client.
//
// The package is organized into several subpackages:
//
//   - common: The Message envelope (request, ack, event), the server and client
//     configuration and the logger setup.
//
//   - transport: Connection abstractions with pluggable implementations
//     (websocket, TCP and Unix sockets).
//
//   - serializer: Message serialization (JSON, CBOR).
//
//   - client: A relay client with request/ack correlation and event handlers.
//
//   - server: The relay server with its HTTP routes.
package rpc
