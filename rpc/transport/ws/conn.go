package ws

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/akeylesspro/nx-data-socket/rpc/transport"
	"github.com/gorilla/websocket"
)

// controlWriteWait bounds writing ping and close frames
const controlWriteWait = 5 * time.Second

// conn implements transport.IConn for a websocket connection
type conn struct {
	ws           *websocket.Conn
	msgType      int
	pingInterval time.Duration
	pongWait     time.Duration
	done         chan struct{}
	closeOnce    sync.Once
}

// newConn wraps a websocket. With a ping interval the connection is considered
// dead if nothing (message or pong) arrives within two intervals.
func newConn(ws *websocket.Conn, maxMessageSize int64, pingInterval time.Duration, binary bool) *conn {
	c := &conn{
		ws:           ws,
		msgType:      websocket.TextMessage,
		pingInterval: pingInterval,
		pongWait:     2 * pingInterval,
		done:         make(chan struct{}),
	}
	if binary {
		c.msgType = websocket.BinaryMessage
	}
	if maxMessageSize > 0 {
		ws.SetReadLimit(maxMessageSize)
	}
	if pingInterval > 0 {
		_ = ws.SetReadDeadline(time.Now().Add(c.pongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(c.pongWait))
		})
		go c.pingLoop()
	}
	return c
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IConn)
// --------------------------------------------------------------------------

func (c *conn) ReadMessage() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		if errors.Is(err, websocket.ErrReadLimit) {
			return nil, transport.ErrMessageTooLarge
		}
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
			return nil, io.EOF
		}
		return nil, err
	}
	if c.pingInterval > 0 {
		_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	}
	return data, nil
}

func (c *conn) WriteMessage(data []byte) error {
	return c.ws.WriteMessage(c.msgType, data)
}

func (c *conn) SetWriteDeadline(t time.Time) error {
	return c.ws.SetWriteDeadline(t)
}

func (c *conn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}

func (c *conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(controlWriteWait))
		err = c.ws.Close()
	})
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// pingLoop sends pings until the connection is closed.
// WriteControl may be called concurrently with WriteMessage.
func (c *conn) pingLoop() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(controlWriteWait)); err != nil {
				Logger.Debugf("Ping to %s failed: %v", c.ws.RemoteAddr(), err)
				return
			}
		}
	}
}
