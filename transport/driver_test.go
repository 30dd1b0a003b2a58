package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/scene-supervisor/timectrl"
)

// echoSimulator answers every request frame with a fixed reply.
func echoSimulator(t *testing.T, conn *Conn, reply []byte, requests chan<- []byte) {
	t.Helper()
	go func() {
		for {
			frame, err := conn.ReadFrame()
			if err != nil {
				return
			}
			requests <- frame
			if err := conn.WriteFrame(reply); err != nil {
				return
			}
		}
	}()
}

func TestDriverRoundTrip(t *testing.T) {
	a, b := net.Pipe()
	client, server := NewConn(a), NewConn(b)
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})

	requests := make(chan []byte, 1)
	echoSimulator(t, server, []byte{0xaa, 0xbb}, requests)

	d := NewDriver(client)
	answer, err := d.RoundTrip([]byte{0x01, 0x02, 0x03})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb}, answer)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, <-requests)
}

type countingFlusher struct{ flushes int }

func (c *countingFlusher) Flush() { c.flushes++ }

func TestDriverStepAdvancesTimeAndFlushes(t *testing.T) {
	a, b := net.Pipe()
	client := NewConn(a)
	t.Cleanup(func() {
		client.Close()
		b.Close()
	})

	clock := timectrl.NewStepClock(32 * time.Millisecond)
	d := NewDriver(client, WithClock(clock))

	var f countingFlusher
	seconds := d.Step(&f)
	assert.Equal(t, 0.032, seconds)
	assert.Equal(t, 0.032, d.Time())
	assert.Equal(t, 1, f.flushes)

	d.Step(nil)
	assert.Equal(t, 0.064, d.Time())
}

func TestDriverShutdown(t *testing.T) {
	a, b := net.Pipe()
	client := NewConn(a)
	t.Cleanup(func() { b.Close() })

	d := NewDriver(client)
	assert.False(t, d.Quitting())
	require.NoError(t, d.Shutdown())
	assert.True(t, d.Quitting())

	_, err := d.RoundTrip([]byte{0x01})
	assert.ErrorIs(t, err, ErrClosed)
}
