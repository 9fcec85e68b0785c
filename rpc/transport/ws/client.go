package ws

import (
	"context"
	"fmt"

	"github.com/akeylesspro/nx-data-socket/rpc/common"
	"github.com/akeylesspro/nx-data-socket/rpc/transport"
	"github.com/gorilla/websocket"
)

// NewWSClientTransport creates a websocket client transport
func NewWSClientTransport() transport.IRPCClientTransport {
	return &wsClientTransport{}
}

type wsClientTransport struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *wsClientTransport) Connect(ctx context.Context, config common.ClientConfig, binary bool) (transport.IConn, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("no endpoint provided")
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: config.Timeout(),
	}
	ws, _, err := dialer.DialContext(ctx, config.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %v", config.Endpoint, err)
	}

	Logger.Infof("Connected to %s using ws transport", config.Endpoint)
	return newConn(ws, 0, 0, binary), nil
}
