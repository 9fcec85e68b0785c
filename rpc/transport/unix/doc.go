// Package unix implements the relay transport over Unix domain sockets, for
// clients running on the same machine (sidecars, local tooling).
//
// This package extends the base transport layer with Unix socket-specific connectors
// and uses its length prefixed framing.
//
// Key Components:
//
//   - clientConnector: Establishes connections using Unix domain sockets
//
//   - serverConnector: Creates the socket at ServerTransportConfig.Endpoint,
//     replacing a stale socket file left behind by a previous run
package unix
