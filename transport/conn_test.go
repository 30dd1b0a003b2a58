package transport

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipePair(t *testing.T) (*Conn, *Conn) {
	t.Helper()
	a, b := net.Pipe()
	ca, cb := NewConn(a), NewConn(b)
	t.Cleanup(func() {
		ca.Close()
		cb.Close()
	})
	return ca, cb
}

func TestConnFrameRoundTrip(t *testing.T) {
	client, server := pipePair(t)

	done := make(chan []byte, 1)
	go func() {
		frame, err := server.ReadFrame()
		if err != nil {
			done <- nil
			return
		}
		done <- frame
	}()

	payload := []byte{0x31, 0x00, 0x01, 0x02}
	require.NoError(t, client.WriteFrame(payload))
	assert.Equal(t, payload, <-done)
}

func TestConnEmptyFrame(t *testing.T) {
	client, server := pipePair(t)

	done := make(chan []byte, 1)
	errs := make(chan error, 1)
	go func() {
		frame, err := server.ReadFrame()
		done <- frame
		errs <- err
	}()

	require.NoError(t, client.WriteFrame(nil))
	assert.Nil(t, <-done)
	assert.NoError(t, <-errs)
}

func TestConnRejectsOversizedFrame(t *testing.T) {
	client, _ := pipePair(t)
	assert.ErrorIs(t, client.WriteFrame(make([]byte, maxFrameSize+1)), ErrFrameTooLarge)
}

func TestConnClosedErrors(t *testing.T) {
	client, _ := pipePair(t)
	require.NoError(t, client.Close())
	require.NoError(t, client.Close(), "double close is safe")

	assert.ErrorIs(t, client.WriteFrame([]byte{1}), ErrClosed)
	_, err := client.ReadFrame()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestConnOversizedPrefixRejected(t *testing.T) {
	a, b := net.Pipe()
	conn := NewConn(b)
	t.Cleanup(func() {
		a.Close()
		conn.Close()
	})

	go func() {
		// 256 MiB length prefix, little-endian, beyond maxFrameSize.
		_, _ = a.Write([]byte{0x00, 0x00, 0x00, 0x10})
	}()

	_, err := conn.ReadFrame()
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}
