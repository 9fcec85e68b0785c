// Package common provides the data structures shared by the server, the client
// and the transports of the relay.
//
// The package focuses on:
//   - Message protocol definition for client/server communication
//   - Configuration structures for client and server components
//   - Custom logging implementation integrated with Dragonboat's logger facade
//
// Key Components:
//
//   - Message: The envelope of every frame on the wire. A request carries an
//     event name, an optional reply id and a payload; the server answers with an
//     ack echoing the id, and pushes events (initial_data:<collection>,
//     collection_update, ...) at any time.
//
//   - MessageType: request, ack or event. Encoded as a string in JSON.
//
//   - ServerConfig: HTTP endpoint, transport, serializer, store and channel
//     settings of the server, with a String method for the startup banner.
//
//   - ClientConfig: Endpoint, transport and timeout of the Go client.
//
//   - Logger: A dragonboat logger.ILogger factory printing
//     "date time | LEVEL | package | message" to stdout with colored levels.
package common
