package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akeylesspro/nx-data-socket/lib/relay"
	"github.com/akeylesspro/nx-data-socket/rpc/common"
	"github.com/akeylesspro/nx-data-socket/rpc/serializer"
	"github.com/akeylesspro/nx-data-socket/rpc/transport"
	"github.com/puzpuzpuz/xsync/v3"
)

// ErrClosed is returned for requests on a closed client
var ErrClosed = errors.New("client closed")

// EventHandler receives server pushed events. Handlers run on the read
// goroutine of the client, in the order the events arrive.
type EventHandler func(event string, payload any)

type eventHandler struct {
	pattern string
	fn      EventHandler
}

// Client is a connection to a relay server.
type Client struct {
	conn       transport.IConn
	serializer serializer.IRPCSerializer
	timeout    time.Duration

	nextID  atomic.Uint64
	pending *xsync.MapOf[uint64, chan common.Message]

	handlersMu sync.RWMutex
	handlers   []eventHandler

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to a relay server.
//
// Usage:
//
//	c, err := client.Dial(ctx, config, ws.NewWSClientTransport(), serializer.NewJSONSerializer())
//	c.On("collection_update", func(event string, payload any) { ... })
//	resp, err := c.Subscribe(ctx, "units")
func Dial(
	ctx context.Context,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (*Client, error) {
	conn, err := transport.Connect(ctx, config, serializer.Binary())
	if err != nil {
		return nil, err
	}

	c := &Client{
		conn:       conn,
		serializer: serializer,
		timeout:    config.Timeout(),
		pending:    xsync.NewMapOf[uint64, chan common.Message](),
		done:       make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// On registers a handler for pushed events. The pattern is an event name or a
// prefix ending in "*" (e.g. "initial_data:*").
func (c *Client) On(pattern string, fn EventHandler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.handlers = append(c.handlers, eventHandler{pattern: pattern, fn: fn})
}

// Request sends a request and waits for its acknowledgement
func (c *Client) Request(ctx context.Context, event string, payload any) (relay.Response, error) {
	id := c.nextID.Add(1)
	ch := make(chan common.Message, 1)
	c.pending.Store(id, ch)
	defer c.pending.Delete(id)

	if err := c.send(common.NewRequest(event, id, payload)); err != nil {
		return relay.Response{}, err
	}

	var timeoutCh <-chan time.Time
	if c.timeout > 0 {
		timer := time.NewTimer(c.timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case msg := <-ch:
		return decodeResponse(msg.Payload)
	case <-ctx.Done():
		return relay.Response{}, ctx.Err()
	case <-timeoutCh:
		return relay.Response{}, fmt.Errorf("request %s timed out", event)
	case <-c.done:
		return relay.Response{}, ErrClosed
	}
}

// Emit sends a request without waiting for a result. The server does not acknowledge it.
func (c *Client) Emit(event string, payload any) error {
	return c.send(common.NewRequest(event, 0, payload))
}

// Done is closed once the connection has ended
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close closes the connection. Waiting requests fail with ErrClosed.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// send serializes and writes one message
func (c *Client) send(msg *common.Message) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	data, err := c.serializer.Serialize(*msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	}
	return c.conn.WriteMessage(data)
}

// readLoop distributes acks to waiting requests and events to handlers
func (c *Client) readLoop() {
	defer c.Close()
	for {
		data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				Logger.Warningf("connection lost: %v", err)
			}
			return
		}

		var msg common.Message
		if err := c.serializer.Deserialize(data, &msg); err != nil {
			Logger.Errorf("failed to deserialize message: %v", err)
			continue
		}

		switch msg.MsgType {
		case common.MsgTAck:
			if ch, ok := c.pending.Load(msg.ID); ok {
				ch <- msg
			} else {
				Logger.Warningf("received ack for unknown request ID %d", msg.ID)
			}
		case common.MsgTEvent:
			c.dispatchEvent(msg.Event, msg.Payload)
		default:
			Logger.Warningf("ignoring message of type %s", msg.MsgType)
		}
	}
}

func (c *Client) dispatchEvent(event string, payload any) {
	c.handlersMu.RLock()
	defer c.handlersMu.RUnlock()
	for _, h := range c.handlers {
		if matchEvent(h.pattern, event) {
			h.fn(event, payload)
		}
	}
}
