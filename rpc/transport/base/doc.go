// Package base provides the foundation of the socket based transports (tcp, unix).
// It implements message framing and the accept loop independent of the specific
// network protocol, and is extended with protocol-specific connectors.
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific operations
//     (dialing, listening, socket options) that allow extending the base transport
//     with different network protocols.
//
//   - serverTransport: Accepts connections until the context passed to Listen is
//     done and hands each connection, wrapped as transport.IConn, to the registered
//     handler in its own goroutine.
//
//   - clientTransport: Dials a single connection for the Go client.
//
// Frame Format:
//
//	Every message is sent as a 4 byte big endian length followed by the payload.
//	Header and payload are written with one net.Buffers call to save a syscall.
//	The server rejects frames larger than ServerTransportConfig.MaxMessageSize
//	before reading their payload.
//
// Thread Safety:
//
//	A framed connection supports one reader and one writer at a time, which is
//	how the server and the client use it. Close is safe at any time.
package base
