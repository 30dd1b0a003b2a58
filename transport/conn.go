// Package transport carries supervisor frames between the controller and
// the simulator process. Request and answer frames travel as opaque byte
// blocks with a little-endian u32 length prefix; the step driver pairs
// each outbound frame with the inbound frame that answers it.
package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
)

// maxFrameSize bounds a single frame. Scene descriptions imported from
// strings dominate real frames and stay far below this.
const maxFrameSize = 64 << 20

var (
	// ErrFrameTooLarge indicates a length prefix beyond maxFrameSize.
	ErrFrameTooLarge = errors.New("transport: frame exceeds size limit")
	// ErrClosed indicates use of a closed connection.
	ErrClosed = errors.New("transport: connection closed")
)

// Conn frames byte blocks over a reliable byte stream. Writes and reads
// are serialised independently, so one goroutine may stream answers while
// another writes requests.
type Conn struct {
	wmu sync.Mutex
	rmu sync.Mutex
	rw  io.ReadWriteCloser

	closeOnce sync.Once
	closeErr  error
	closed    chan struct{}
}

// NewConn wraps an established byte stream.
func NewConn(rw io.ReadWriteCloser) *Conn {
	return &Conn{rw: rw, closed: make(chan struct{})}
}

// Dial connects to a simulator listening on a TCP address.
func Dial(addr string) (*Conn, error) {
	c, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	return NewConn(c), nil
}

// WriteFrame transmits one frame with its length prefix.
func (c *Conn) WriteFrame(frame []byte) error {
	if c.isClosed() {
		return ErrClosed
	}
	if len(frame) > maxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(frame))
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()

	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(frame)))
	if _, err := c.rw.Write(prefix[:]); err != nil {
		return fmt.Errorf("transport: write frame prefix: %w", err)
	}
	if len(frame) == 0 {
		return nil
	}
	if _, err := c.rw.Write(frame); err != nil {
		return fmt.Errorf("transport: write frame body: %w", err)
	}
	return nil
}

// ReadFrame blocks until one full frame has arrived and returns its body.
func (c *Conn) ReadFrame() ([]byte, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}

	c.rmu.Lock()
	defer c.rmu.Unlock()

	var prefix [4]byte
	if _, err := io.ReadFull(c.rw, prefix[:]); err != nil {
		return nil, fmt.Errorf("transport: read frame prefix: %w", err)
	}
	size := binary.LittleEndian.Uint32(prefix[:])
	if size > maxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}
	if size == 0 {
		return nil, nil
	}
	frame := make([]byte, size)
	if _, err := io.ReadFull(c.rw, frame); err != nil {
		return nil, fmt.Errorf("transport: read frame body: %w", err)
	}
	return frame, nil
}

// Close tears down the underlying stream. Safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.closeErr = c.rw.Close()
	})
	return c.closeErr
}

func (c *Conn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}
