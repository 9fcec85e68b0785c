// Package transport defines the interfaces for moving messages between the relay
// and its clients. It provides a common contract that all transport
// implementations must fulfill, so the server and the client are independent
// of the network protocol.
//
// The package focuses on:
//   - A message oriented connection abstraction (IConn)
//   - Server transports that accept connections and hand them to one handler
//   - Client transports that establish a single connection
//
// Key Components:
//
//   - IConn: One connection delivering complete messages. Framing, keepalive
//     and deadlines are handled by the implementation.
//
//   - IRPCServerTransport: Accepts connections. HTTP based transports mount
//     their route on the server's mux, socket based transports listen on their
//     own endpoint.
//
//   - IRPCClientTransport: Dials one connection for the Go client.
//
// Implementations:
//
//   - ws: WebSocket (gorilla/websocket), the transport browsers use
//   - tcp, unix: length prefixed frames over plain sockets, built on base
package transport
