package server

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/akeylesspro/nx-data-socket/lib/store"
	"github.com/akeylesspro/nx-data-socket/lib/store/mstore"
	"github.com/akeylesspro/nx-data-socket/rpc/client"
	"github.com/akeylesspro/nx-data-socket/rpc/common"
	"github.com/akeylesspro/nx-data-socket/rpc/serializer"
	"github.com/akeylesspro/nx-data-socket/rpc/transport"
	"github.com/akeylesspro/nx-data-socket/rpc/transport/tcp"
	"github.com/akeylesspro/nx-data-socket/rpc/transport/unix"
	"github.com/akeylesspro/nx-data-socket/rpc/transport/ws"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------------
// Test Helpers
// --------------------------------------------------------------------------

type testServer struct {
	srv      *RPCServer
	store    store.IStore
	httpAddr string
	config   common.ServerConfig
}

func testConfig() common.ServerConfig {
	return common.ServerConfig{
		Mode:    "qa",
		Version: "1.2.3",
		Transport: common.ServerTransportConfig{
			Type:           "ws",
			SocketPath:     ws.DefaultSocketPath,
			MaxMessageSize: 1 << 20,
			WriteTimeout:   5 * time.Second,
		},
		Serializer:         "json",
		DataUpdatePrefix:   "data_update",
		WriteRequestPrefix: "firebase_write_request",
		SendBuffer:         64,
		LogLevel:           "info",
	}
}

// startServer runs a server on a random port until the test ends
func startServer(t *testing.T, config common.ServerConfig, tr transport.IRPCServerTransport) *testServer {
	t.Helper()

	s, err := serializer.New(config.Serializer)
	require.NoError(t, err)
	return startServerWith(t, config, tr, s)
}

// startServerWith runs a server with an explicit serializer
func startServerWith(t *testing.T, config common.ServerConfig, tr transport.IRPCServerTransport, s serializer.IRPCSerializer) *testServer {
	t.Helper()

	st := mstore.NewMemoryStore()
	srv := NewRPCServer(config, tr, s, st)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ServeListener(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
		_ = st.Close()
	})

	return &testServer{srv: srv, store: st, httpAddr: ln.Addr().String(), config: config}
}

func (ts *testServer) wsURL() string {
	return "ws://" + ts.httpAddr + ws.DefaultSocketPath
}

func dialClient(t *testing.T, config common.ClientConfig, tr transport.IRPCClientTransport) *client.Client {
	t.Helper()
	s, err := serializer.New(config.Serializer)
	require.NoError(t, err)

	var c *client.Client
	require.Eventually(t, func() bool {
		c, err = client.Dial(context.Background(), config, tr, s)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond, "dial %s", config.Endpoint)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// eventLog collects pushed events of a client
type eventLog struct {
	mu     sync.Mutex
	events []string
	last   map[string]any
}

func (l *eventLog) handler(event string, payload any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.last == nil {
		l.last = map[string]any{}
	}
	l.events = append(l.events, event)
	l.last[event] = payload
}

func (l *eventLog) count(event string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e == event {
			n++
		}
	}
	return n
}

func (l *eventLog) payload(event string) any {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last[event]
}

func httpGet(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

// --------------------------------------------------------------------------
// End to End
// --------------------------------------------------------------------------

// runRelayScenario exercises all relay events through a connected client
func runRelayScenario(t *testing.T, ts *testServer, dial func() *client.Client) {
	ctx := context.Background()
	require.NoError(t, ts.store.Set(ctx, "units:1", []byte(`{"id":"1","name":"truck"}`)))
	require.NoError(t, ts.store.Set(ctx, "units:2", []byte(`{"id":"2","name":"van"}`)))

	subscriber := dial()
	events := &eventLog{}
	subscriber.On("*", events.handler)

	// subscribe: snapshot arrives before the ack
	resp, err := subscriber.Subscribe(ctx, "units")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Subscribed to units", resp.Message)
	require.Equal(t, 1, events.count("initial_data:units"))
	assert.Len(t, events.payload("initial_data:units"), 2)

	// set and get through a second client
	writer := dial()
	resp, err = writer.SetData(ctx, "units:3", map[string]any{"id": "3", "name": "bus"})
	require.NoError(t, err)
	assert.Equal(t, "units:3", resp.ID)

	resp, err = writer.GetDocument(ctx, "units", "3")
	require.NoError(t, err)
	require.NotNil(t, resp.Found)
	assert.True(t, *resp.Found)
	assert.Equal(t, map[string]any{"id": "3", "name": "bus"}, resp.Data)

	// change notifications reach the subscriber
	require.Eventually(t, func() bool {
		_ = ts.store.Publish(ctx, "data_update:units:3", []byte(`{"id":"3","type":"create"}`))
		return events.count("collection_update") > 0
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, map[string]any{"id": "3", "type": "create"}, events.payload("collection_update"))

	// validation errors are acknowledged
	resp, err = writer.Request(ctx, "set_data", map[string]any{"persistToFirebase": true, "data": 1, "collectionName": "units"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "collectionName and documentId are required for Firebase persistence.", resp.Message)

	// unsubscribe
	resp, err = subscriber.Unsubscribe(ctx, "units")
	require.NoError(t, err)
	assert.Equal(t, "Unsubscribed from units", resp.Message)
	assert.Equal(t, 0, ts.srv.Relay().RoomSize("units"))
}

func TestWebsocketJSON(t *testing.T) {
	ts := startServer(t, testConfig(), ws.NewWSServerTransport())
	cc := common.ClientConfig{Endpoint: ts.wsURL(), Transport: "ws", Serializer: "json", TimeoutSecond: 5}

	runRelayScenario(t, ts, func() *client.Client {
		return dialClient(t, cc, ws.NewWSClientTransport())
	})
}

func TestWebsocketCBOR(t *testing.T) {
	config := testConfig()
	config.Serializer = "cbor"
	ts := startServer(t, config, ws.NewWSServerTransport())
	cc := common.ClientConfig{Endpoint: ts.wsURL(), Transport: "ws", Serializer: "cbor", TimeoutSecond: 5}

	runRelayScenario(t, ts, func() *client.Client {
		return dialClient(t, cc, ws.NewWSClientTransport())
	})
}

func TestTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	config := testConfig()
	config.Transport.Type = "tcp"
	config.Transport.Endpoint = addr
	config.Transport.TCPNoDelay = true
	ts := startServer(t, config, tcp.NewTCPServerTransport())
	cc := common.ClientConfig{Endpoint: addr, Transport: "tcp", Serializer: "json", TimeoutSecond: 5}

	runRelayScenario(t, ts, func() *client.Client {
		return dialClient(t, cc, tcp.NewTCPClientTransport())
	})
}

func TestUnix(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "nxds.sock")

	config := testConfig()
	config.Transport.Type = "unix"
	config.Transport.Endpoint = socket
	ts := startServer(t, config, unix.NewUnixServerTransport())
	cc := common.ClientConfig{Endpoint: socket, Transport: "unix", Serializer: "json", TimeoutSecond: 5}

	runRelayScenario(t, ts, func() *client.Client {
		return dialClient(t, cc, unix.NewUnixClientTransport())
	})
}

// --------------------------------------------------------------------------
// Wire Protocol
// --------------------------------------------------------------------------

func TestRawWebsocketProtocol(t *testing.T) {
	ts := startServer(t, testConfig(), ws.NewWSServerTransport())

	conn, _, err := websocket.DefaultDialer.Dial(ts.wsURL(), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	// garbage and non-request messages are ignored, the connection stays open
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ack","id":1}`)))

	// a request without id is executed but not acknowledged
	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"request","event":"set_data","payload":{"key":"k","data":{"a":1}}}`)))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"request","event":"get_data","id":9,"payload":{"key":"k"}}`)))

	var msg map[string]any
	require.Eventually(t, func() bool {
		msg = nil
		if err := conn.ReadJSON(&msg); err != nil {
			return false
		}
		payload, _ := msg["payload"].(map[string]any)
		if payload["found"] == true {
			return true
		}
		// read before the fire and forget write landed, ask again
		_ = conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"request","event":"get_data","id":9,"payload":{"key":"k"}}`))
		return false
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, "ack", msg["type"])
	assert.Equal(t, float64(9), msg["id"])
	assert.Equal(t, map[string]any{"success": true, "found": true, "data": map[string]any{"a": float64(1)}}, msg["payload"])

	// unknown events are acknowledged with an error
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"request","event":"publish","id":10,"payload":{}}`)))
	msg = nil
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, float64(10), msg["id"])
	assert.Equal(t, map[string]any{"success": false, "message": "Unknown event publish"}, msg["payload"])
}

func TestWebsocketFrameTypeFollowsSerializer(t *testing.T) {
	// the config names json, the server runs with cbor
	cbor := serializer.NewCBORSerializer()
	ts := startServerWith(t, testConfig(), ws.NewWSServerTransport(), cbor)
	require.NoError(t, ts.store.Set(context.Background(), "k", []byte(`{"a":1}`)))

	conn, _, err := websocket.DefaultDialer.Dial(ts.wsURL(), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	req, err := cbor.Serialize(*common.NewRequest("get_data", 1, map[string]any{"key": "k"}))
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, req))

	msgType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, msgType)

	var msg common.Message
	require.NoError(t, cbor.Deserialize(data, &msg))
	assert.Equal(t, common.MsgTAck, msg.MsgType)
	assert.Equal(t, uint64(1), msg.ID)
}

func TestOversizedMessageClosesConnection(t *testing.T) {
	t.Run("ws", func(t *testing.T) {
		config := testConfig()
		config.Transport.MaxMessageSize = 16
		ts := startServer(t, config, ws.NewWSServerTransport())

		conn, _, err := websocket.DefaultDialer.Dial(ts.wsURL(), nil)
		require.NoError(t, err)
		defer conn.Close()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

		require.Eventually(t, func() bool { return ts.srv.Relay().SessionCount() == 1 }, 3*time.Second, 10*time.Millisecond)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 64))))

		_, _, err = conn.ReadMessage()
		require.Error(t, err)
		assert.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig), "unexpected error: %v", err)
		require.Eventually(t, func() bool { return ts.srv.Relay().SessionCount() == 0 }, 3*time.Second, 10*time.Millisecond)
	})

	t.Run("tcp", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := ln.Addr().String()
		require.NoError(t, ln.Close())

		config := testConfig()
		config.Transport.Type = "tcp"
		config.Transport.Endpoint = addr
		config.Transport.MaxMessageSize = 16
		ts := startServer(t, config, tcp.NewTCPServerTransport())

		var conn net.Conn
		require.Eventually(t, func() bool {
			conn, err = net.Dial("tcp", addr)
			return err == nil
		}, 2*time.Second, 20*time.Millisecond)
		defer conn.Close()
		require.Eventually(t, func() bool { return ts.srv.Relay().SessionCount() == 1 }, 3*time.Second, 10*time.Millisecond)

		frame := make([]byte, 4+64)
		binary.BigEndian.PutUint32(frame, 64)
		_, err = conn.Write(frame)
		require.NoError(t, err)

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		// EOF or a reset, the unread payload is discarded by the server
		_, err = conn.Read(make([]byte, 1))
		assert.Error(t, err)
		require.Eventually(t, func() bool { return ts.srv.Relay().SessionCount() == 0 }, 3*time.Second, 10*time.Millisecond)
	})
}

func TestDisconnectReleasesSession(t *testing.T) {
	ts := startServer(t, testConfig(), ws.NewWSServerTransport())
	cc := common.ClientConfig{Endpoint: ts.wsURL(), Transport: "ws", Serializer: "json", TimeoutSecond: 5}

	c := dialClient(t, cc, ws.NewWSClientTransport())
	_, err := c.Subscribe(context.Background(), "alpha", "beta")
	require.NoError(t, err)
	require.Equal(t, 1, ts.srv.Relay().SessionCount())
	require.Equal(t, 2, ts.srv.Relay().RoomCount())

	require.NoError(t, c.Close())

	require.Eventually(t, func() bool {
		return ts.srv.Relay().SessionCount() == 0 && ts.srv.Relay().RoomCount() == 0
	}, 3*time.Second, 10*time.Millisecond)

	// reconnecting starts without subscriptions
	c2 := dialClient(t, cc, ws.NewWSClientTransport())
	resp, err := c2.GetData(context.Background(), "nothing")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 0, ts.srv.Relay().RoomCount())
}

func TestOriginCheck(t *testing.T) {
	config := testConfig()
	config.Transport.AllowedOrigins = []string{"https://app.example.com"}
	ts := startServer(t, config, ws.NewWSServerTransport())

	header := http.Header{}
	header.Set("Origin", "https://evil.example.com")
	_, resp, err := websocket.DefaultDialer.Dial(ts.wsURL(), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://app.example.com")
	conn, _, err := websocket.DefaultDialer.Dial(ts.wsURL(), header)
	require.NoError(t, err)
	_ = conn.Close()
}

// --------------------------------------------------------------------------
// HTTP Api
// --------------------------------------------------------------------------

func TestHTTPRoutes(t *testing.T) {
	ts := startServer(t, testConfig(), ws.NewWSServerTransport())
	base := "http://" + ts.httpAddr

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/", http.StatusOK, "OK from data-socket"},
		{"/api/data-socket/", http.StatusOK, "hello from data-socket QA"},
		{"/api/data-socket/v", http.StatusOK, "1.2.3 --QA"},
		{"/healthz", http.StatusOK, "OK"},
		{"/unknown", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, body := httpGet(t, base+tt.path)
			assert.Equal(t, tt.status, status)
			if tt.body != "" {
				assert.Equal(t, tt.body, body)
			}
		})
	}

	status, body := httpGet(t, base+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "nxds_connections_total")
}

func TestHealthUnavailable(t *testing.T) {
	// a closed store also ends the change listener, so the routes are served
	// without a running server
	st := mstore.NewMemoryStore()
	require.NoError(t, st.Close())
	srv := &RPCServer{store: st, config: testConfig()}

	mux := http.NewServeMux()
	srv.registerRoutes(mux)
	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
	rec := &recorder{header: http.Header{}}
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.status)

	srv.config.Mode = "prod"
	mux = http.NewServeMux()
	srv.registerRoutes(mux)
	req, _ = http.NewRequest(http.MethodGet, "/api/data-socket/", nil)
	rec = &recorder{header: http.Header{}}
	mux.ServeHTTP(rec, req)
	assert.Equal(t, "hello from data-socket PROD", rec.body)
}

// recorder is a minimal http.ResponseWriter
type recorder struct {
	header http.Header
	status int
	body   string
}

func (r *recorder) Header() http.Header { return r.header }
func (r *recorder) WriteHeader(code int) { r.status = code }
func (r *recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body += string(b)
	return len(b), nil
}

func TestServeFailsWhenStoreIsClosed(t *testing.T) {
	st := mstore.NewMemoryStore()
	require.NoError(t, st.Close())
	srv := NewRPCServer(testConfig(), ws.NewWSServerTransport(), serializer.NewJSONSerializer(), st)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.ServeListener(context.Background(), ln) }()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not fail")
	}
}
