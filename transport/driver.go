package transport

import (
	"context"
	"sync/atomic"

	"github.com/signalsfoundry/scene-supervisor/internal/logging"
	"github.com/signalsfoundry/scene-supervisor/internal/observability"
	"github.com/signalsfoundry/scene-supervisor/timectrl"
)

// Flusher is the slice of the supervisor core the driver steps: it
// serialises all pending requests into one outbound frame and processes
// the paired answers.
type Flusher interface {
	Flush()
}

// Driver pairs outbound request frames with inbound answer frames over a
// Conn and owns the client's view of simulation time. It satisfies the
// supervisor core's step-driver contract.
type Driver struct {
	conn  *Conn
	clock *timectrl.StepClock
	log   logging.Logger

	quitting atomic.Bool
}

// DriverOption customises Driver construction.
type DriverOption func(*Driver)

// WithClock substitutes the simulation clock.
func WithClock(clock *timectrl.StepClock) DriverOption {
	return func(d *Driver) {
		if clock != nil {
			d.clock = clock
		}
	}
}

// WithLogger replaces the default logger.
func WithLogger(l logging.Logger) DriverOption {
	return func(d *Driver) {
		if l != nil {
			d.log = l
		}
	}
}

// NewDriver binds a step driver to an established connection.
func NewDriver(conn *Conn, opts ...DriverOption) *Driver {
	d := &Driver{
		conn:  conn,
		clock: timectrl.NewStepClock(0),
		log:   logging.Noop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RoundTrip transmits one request frame and blocks until the simulator's
// paired answer frame arrives. The supervisor calls this with its step
// lock released.
func (d *Driver) RoundTrip(frame []byte) ([]byte, error) {
	ctx, span := observability.StartFlushSpan(context.Background(), d.clock.Seconds(), len(frame))

	if err := d.conn.WriteFrame(frame); err != nil {
		span.Fail("write", err)
		d.log.Error(ctx, "request frame write failed", logging.String("error", err.Error()))
		return nil, err
	}
	answer, err := d.conn.ReadFrame()
	if err != nil {
		span.Fail("read", err)
		d.log.Error(ctx, "answer frame read failed", logging.String("error", err.Error()))
		return nil, err
	}
	span.End(len(answer))
	return answer, nil
}

// Time returns the current simulation time in seconds.
func (d *Driver) Time() float64 { return d.clock.Seconds() }

// Clock exposes the driver's step clock.
func (d *Driver) Clock() *timectrl.StepClock { return d.clock }

// Quitting reports whether Shutdown was initiated. The supervisor core
// suppresses stale-handle diagnostics while it returns true.
func (d *Driver) Quitting() bool { return d.quitting.Load() }

// Step advances simulation time by one basic time step and flushes the
// supervisor so deferred mutations ride this step's frame.
func (d *Driver) Step(f Flusher) float64 {
	seconds := d.clock.Advance()
	if f != nil {
		f.Flush()
	}
	return seconds
}

// Shutdown marks the controller as quitting and closes the connection.
func (d *Driver) Shutdown() error {
	d.quitting.Store(true)
	return d.conn.Close()
}
