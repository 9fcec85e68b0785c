package server

import (
	"sync"
	"time"

	"github.com/akeylesspro/nx-data-socket/lib/relay"
	"github.com/akeylesspro/nx-data-socket/rpc/common"
	"github.com/akeylesspro/nx-data-socket/rpc/serializer"
	"github.com/akeylesspro/nx-data-socket/rpc/transport"
)

// connection is the relay.Peer of one client connection. All outbound messages
// go through one bounded queue drained by writeLoop, the only writer of conn.
type connection struct {
	id           string
	conn         transport.IConn
	serializer   serializer.IRPCSerializer
	writeTimeout time.Duration

	out       chan *common.Message
	done      chan struct{}
	closeOnce sync.Once
}

func newConnection(id string, conn transport.IConn, s serializer.IRPCSerializer, config common.ServerConfig) *connection {
	size := config.SendBuffer
	if size < 1 {
		size = 1
	}
	return &connection{
		id:           id,
		conn:         conn,
		serializer:   s,
		writeTimeout: config.Transport.WriteTimeout,
		out:          make(chan *common.Message, size),
		done:         make(chan struct{}),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see relay.Peer)
// --------------------------------------------------------------------------

func (c *connection) Emit(event string, payload any) error {
	return c.enqueue(common.NewEvent(event, payload))
}

func (c *connection) TryEmit(event string, payload any) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.out <- common.NewEvent(event, payload):
		return true
	default:
		return false
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// enqueue blocks until the message is queued or the connection is closed
func (c *connection) enqueue(msg *common.Message) error {
	select {
	case <-c.done:
		return relay.ErrSessionClosed
	default:
	}

	select {
	case c.out <- msg:
		return nil
	case <-c.done:
		return relay.ErrSessionClosed
	}
}

// ack returns the reply target of request id, nil if the client awaits no ack
func (c *connection) ack(id uint64) relay.AckFunc {
	if id == 0 {
		return nil
	}
	return func(resp relay.Response) {
		if err := c.enqueue(common.NewAck(id, resp)); err != nil {
			Logger.Debugf("[session %s] dropped ack %d: %v", c.id, id, err)
		}
	}
}

// writeLoop writes queued messages until the connection is closed or a write fails
func (c *connection) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.out:
			data, err := c.serializer.Serialize(*msg)
			if err != nil {
				Logger.Errorf("[session %s] failed to serialize %s %s: %v", c.id, msg.MsgType, msg.Event, err)
				continue
			}

			if c.writeTimeout > 0 {
				if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
					Logger.Debugf("[session %s] failed to set write deadline: %v", c.id, err)
				}
			}
			if err := c.conn.WriteMessage(data); err != nil {
				Logger.Debugf("[session %s] write failed: %v", c.id, err)
				c.close()
				return
			}
		}
	}
}

// close stops the writer and closes the underlying connection, which also
// ends the read loop of the connection handler
func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if err := c.conn.Close(); err != nil {
			Logger.Debugf("[session %s] close: %v", c.id, err)
		}
	})
}
