// Package tcp implements the TCP socket transport of the relay. It provides
// concrete implementations of the base package's connector interfaces.
//
// Messages use the length prefixed framing of the base package. The server
// listens on ServerTransportConfig.Endpoint and applies TCPNoDelay and
// TCPKeepAliveSec to every accepted connection.
package tcp
