package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/akeylesspro/nx-data-socket/rpc/common"
)

// ErrMessageTooLarge is returned by ReadMessage if a message exceeds the configured limit
var ErrMessageTooLarge = errors.New("message too large")

// --------------------------------------------------------------------------
// Connection
// --------------------------------------------------------------------------

// IConn is one established, message oriented connection.
// ReadMessage must only be called by one goroutine and WriteMessage (with
// SetWriteDeadline) by one other goroutine. Close may be called at any time.
type IConn interface {
	// ReadMessage blocks until the next complete message is received.
	// It returns io.EOF (or a transport specific close error) once the peer is gone.
	ReadMessage() ([]byte, error)
	// WriteMessage sends one complete message
	WriteMessage(data []byte) error
	// SetWriteDeadline bounds the next WriteMessage, the zero time disables the deadline
	SetWriteDeadline(t time.Time) error
	// RemoteAddr returns the address of the peer for logging
	RemoteAddr() string
	// Close closes the connection and unblocks ReadMessage
	Close() error
}

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ConnHandleFunc is called by a server transport for every accepted connection
// in its own goroutine. The connection is closed by the transport once the
// function returns.
type ConnHandleFunc func(conn IConn)

// IRPCServerTransport is the interface for the server side of the transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers the handler for new connections.
	// It must be called before Listen.
	RegisterHandler(handler ConnHandleFunc)
	// Mount registers HTTP routes of the transport on the server's mux.
	// binary is true if the serializer produces binary (not UTF-8) messages.
	// Transports with their own listener do nothing here.
	Mount(mux *http.ServeMux, config common.ServerConfig, binary bool)
	// Listen accepts connections until the context is done.
	// Transports served over HTTP block until the context is done.
	Listen(ctx context.Context, config common.ServerConfig) error
	// GetName returns the name of the transport type (e.g., "ws", "tcp")
	GetName() string
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the client side of the transport layer
type IRPCClientTransport interface {
	// Connect establishes a connection to config.Endpoint.
	// binary is true if the serializer produces binary (not UTF-8) messages.
	Connect(ctx context.Context, config common.ClientConfig, binary bool) (IConn, error)
}
