// Package ws implements the WebSocket transport of the relay using
// gorilla/websocket. It is the transport browsers and mobile clients use.
//
// The server transport does not own a listener: Mount registers the upgrade
// handler at ServerTransportConfig.SocketPath (default /api/data-socket/connect)
// on the server's HTTP mux, next to the health and metrics routes.
//
// Every serialized message is sent as one websocket message: binary frames if
// the serializer reports Binary (cbor), text frames otherwise (json). With a PingInterval the server
// pings the client and drops the connection if neither a pong nor a message
// arrives within two intervals. Origins are checked against AllowedOrigins;
// an empty list or "*" accepts any origin.
package ws
