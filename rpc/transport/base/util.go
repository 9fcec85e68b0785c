package base

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/akeylesspro/nx-data-socket/rpc/transport"
)

// frameHeaderSize is the size of the length prefix of a frame
const frameHeaderSize = 4

// writeFrame writes a frame to the connection with the format:
// - 4 bytes: data length (uint32, big endian)
// - N bytes: data payload
func writeFrame(conn net.Conn, data []byte) error {
	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint32(header, uint32(len(data)))

	b := net.Buffers{header, data}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads a frame from the connection. Frames larger than maxSize are
// rejected before their payload is read; maxSize 0 disables the check.
func readFrame(conn net.Conn, maxSize int64) ([]byte, error) {
	header := make([]byte, frameHeaderSize)
	if _, err := io.ReadFull(conn, header); err != nil {
		return nil, err
	}

	contentLength := binary.BigEndian.Uint32(header)
	if maxSize > 0 && int64(contentLength) > maxSize {
		return nil, fmt.Errorf("%w: frame of %d bytes exceeds limit of %d bytes", transport.ErrMessageTooLarge, contentLength, maxSize)
	}

	// If no data, return empty slice
	if contentLength == 0 {
		return []byte{}, nil
	}

	data := make([]byte, contentLength)
	if _, err := io.ReadFull(conn, data); err != nil {
		return nil, err
	}
	return data, nil
}

// --------------------------------------------------------------------------
// Framed connection
// --------------------------------------------------------------------------

// frameConn implements transport.IConn on top of a stream connection
type frameConn struct {
	conn    net.Conn
	maxSize int64
}

// NewFrameConn wraps a stream connection into a message oriented connection
func NewFrameConn(conn net.Conn, maxSize int64) transport.IConn {
	return &frameConn{conn: conn, maxSize: maxSize}
}

func (c *frameConn) ReadMessage() ([]byte, error) {
	return readFrame(c.conn, c.maxSize)
}

func (c *frameConn) WriteMessage(data []byte) error {
	return writeFrame(c.conn, data)
}

func (c *frameConn) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

func (c *frameConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *frameConn) Close() error {
	return c.conn.Close()
}
