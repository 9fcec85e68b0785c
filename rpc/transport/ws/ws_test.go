package ws

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akeylesspro/nx-data-socket/rpc/common"
	"github.com/akeylesspro/nx-data-socket/rpc/transport"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------------
// Test Helpers
// --------------------------------------------------------------------------

// startTransport mounts a websocket transport on a test HTTP server
func startTransport(t *testing.T, config common.ServerConfig, binary bool, handler transport.ConnHandleFunc) string {
	t.Helper()

	tr := NewWSServerTransport()
	tr.RegisterHandler(handler)
	mux := http.NewServeMux()
	tr.Mount(mux, config, binary)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + DefaultSocketPath
}

func wsConfig(maxMessageSize int64) common.ServerConfig {
	return common.ServerConfig{
		Transport: common.ServerTransportConfig{
			Type:           "ws",
			SocketPath:     DefaultSocketPath,
			MaxMessageSize: maxMessageSize,
		},
	}
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestFrameType(t *testing.T) {
	tests := []struct {
		name   string
		binary bool
		want   int
	}{
		{"text", false, websocket.TextMessage},
		{"binary", true, websocket.BinaryMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := startTransport(t, wsConfig(0), tt.binary, func(c transport.IConn) {
				_ = c.WriteMessage([]byte{0xa3, 0x64})
				_, _ = c.ReadMessage()
			})

			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			require.NoError(t, err)
			defer conn.Close()
			require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

			msgType, data, err := conn.ReadMessage()
			require.NoError(t, err)
			assert.Equal(t, tt.want, msgType)
			assert.Equal(t, []byte{0xa3, 0x64}, data)
		})
	}
}

func TestClientFrameType(t *testing.T) {
	received := make(chan int, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		msgType, _, err := ws.ReadMessage()
		if err == nil {
			received <- msgType
		}
	}))
	defer srv.Close()

	config := common.ClientConfig{Endpoint: "ws" + strings.TrimPrefix(srv.URL, "http"), TimeoutSecond: 5}
	conn, err := NewWSClientTransport().Connect(context.Background(), config, true)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage([]byte{0xff}))
	select {
	case msgType := <-received:
		assert.Equal(t, websocket.BinaryMessage, msgType)
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}

func TestMessageTooLarge(t *testing.T) {
	readErr := make(chan error, 1)
	url := startTransport(t, wsConfig(16), false, func(c transport.IConn) {
		_, err := c.ReadMessage()
		readErr <- err
	})

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, bytes.Repeat([]byte("x"), 64)))

	select {
	case err := <-readErr:
		assert.True(t, errors.Is(err, transport.ErrMessageTooLarge), "unexpected error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("read did not fail")
	}
}
