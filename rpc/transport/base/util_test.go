package base

import (
	"encoding/binary"
	"errors"
	"net"
	"testing"

	"github.com/akeylesspro/nx-data-socket/rpc/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	reader := NewFrameConn(server, 64)
	writer := NewFrameConn(client, 0)

	messages := [][]byte{[]byte("hello"), {}, make([]byte, 64)}
	go func() {
		for _, m := range messages {
			_ = writer.WriteMessage(m)
		}
	}()

	for _, want := range messages {
		got, err := reader.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestFrameTooLarge(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	// only the header is written, the limit is checked before the payload is read
	go func() {
		header := make([]byte, frameHeaderSize)
		binary.BigEndian.PutUint32(header, 64)
		_, _ = client.Write(header)
	}()

	_, err := NewFrameConn(server, 16).ReadMessage()
	require.Error(t, err)
	assert.True(t, errors.Is(err, transport.ErrMessageTooLarge), "unexpected error: %v", err)
	assert.Contains(t, err.Error(), "frame of 64 bytes exceeds limit of 16 bytes")
}
