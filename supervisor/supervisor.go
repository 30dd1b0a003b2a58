// Package supervisor implements the client half of the scene-graph
// introspection and mutation protocol. A Supervisor batches mutations into
// per-step outbound frames, makes reads appear immediate through
// read-your-writes coalescing, and keeps a registry of stable node and
// field handles that mirror the simulator's scene graph.
package supervisor

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/signalsfoundry/scene-supervisor/internal/logging"
	"github.com/signalsfoundry/scene-supervisor/internal/observability"
	"github.com/signalsfoundry/scene-supervisor/internal/wire"
	"github.com/signalsfoundry/scene-supervisor/scene"
)

// Driver is the step-driver the supervisor core flushes through. RoundTrip
// transmits one outbound request frame and blocks until the simulator's
// paired answer frame arrives. It is called with the step lock released.
type Driver interface {
	RoundTrip(frame []byte) ([]byte, error)

	// Time returns the current simulation time in seconds. Contact-point
	// caches are keyed on it.
	Time() float64

	// Quitting reports whether the controller is shutting down. Stale-handle
	// diagnostics are suppressed while it returns true.
	Quitting() bool
}

// SimulationMode mirrors the simulator's global execution mode.
type SimulationMode int32

const (
	SimulationModePause SimulationMode = iota
	SimulationModeRealTime
	SimulationModeFast
)

// MovieStatus is the state of the movie capture pipeline as last reported
// by the simulator. Values above MovieSaving indicate failure.
type MovieStatus int

const (
	MovieReady MovieStatus = iota
	MovieRecording
	MovieSaving
	MovieSimulationError
	MovieFileError
	MovieEncodingError
)

// AnswerFallback handles answer opcodes the supervisor core does not own.
// The reader cursor is positioned at the opcode byte.
type AnswerFallback func(op wire.Op, r *wire.Reader) error

// Supervisor is the single per-process client core. All of its state is
// protected by the step lock; public API methods acquire it, and the flush
// primitive releases it only around the blocking transport round trip.
type Supervisor struct {
	mu     sync.Mutex
	driver Driver

	log      logging.Logger
	metrics  *observability.SupervisorCollector
	fallback AnswerFallback

	registry *scene.Registry
	root     *scene.Node
	self     *scene.Node

	queue   []*fieldRequest
	garbage []*fieldRequest
	sentGet *fieldRequest

	session sessionState

	supervisorRole bool
	mode           SimulationMode
}

// Option customises Supervisor construction.
type Option func(*Supervisor)

// WithLogger replaces the default stderr diagnostics logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Supervisor) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics attaches a Prometheus collector.
func WithMetrics(m *observability.SupervisorCollector) Option {
	return func(s *Supervisor) { s.metrics = m }
}

// WithSupervisorRole marks whether the controller was granted the
// supervisor role. Without it every operation fails with a diagnostic and
// a sentinel, matching the simulator's enforcement.
func WithSupervisorRole(granted bool) Option {
	return func(s *Supervisor) { s.supervisorRole = granted }
}

// WithAnswerFallback installs a handler for answer opcodes owned by other
// devices of the surrounding robot runtime.
func WithAnswerFallback(fn AnswerFallback) Option {
	return func(s *Supervisor) { s.fallback = fn }
}

// New constructs a Supervisor bound to the given step driver. The synthetic
// root handle (id 0) exists immediately; the self handle is created when
// the simulator's configure answer arrives on the first flush.
func New(driver Driver, opts ...Option) *Supervisor {
	s := &Supervisor{
		driver:         driver,
		log:            logging.New(logging.Config{}),
		registry:       scene.NewRegistry(),
		supervisorRole: true,
		mode:           SimulationModeRealTime,
	}
	s.session.reset()
	for _, opt := range opts {
		opt(s)
	}
	s.root = s.registry.AddNode(0, scene.NodeGroup, scene.NodeGroup.String(), "", 0, -1, false)
	return s
}

// Flush transmits all pending outbound requests and processes the paired
// answers. The step driver calls this once per simulation step so deferred
// SETs ride the step's frame.
func (s *Supervisor) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushUnlocked()
}

// flushUnlocked serialises the outbound frame, releases the step lock for
// the blocking round trip, and dispatches the answers after reacquiring.
// Callers must hold the step lock.
func (s *Supervisor) flushUnlocked() {
	w := wire.NewWriter()
	s.writeRequest(w)
	frame := append([]byte(nil), w.Bytes()...)

	s.mu.Unlock()
	start := time.Now()
	answer, err := s.driver.RoundTrip(frame)
	s.mu.Lock()

	s.metrics.ObserveRoundTrip(time.Since(start).Seconds())

	// The writer is done with the previous frame's borrowed string
	// payloads, so the garbage list can finally be dropped.
	s.drainGarbage()

	if err != nil {
		s.log.Error(context.Background(), "flush round trip failed",
			logging.String("error", err.Error()))
		// The paired answer is lost; release the outstanding GET so the
		// one-in-flight invariant holds for the next operation.
		if s.sentGet != nil {
			s.garbage = append(s.garbage, s.sentGet)
			s.sentGet = nil
		}
		return
	}

	r := wire.NewReader(answer)
	for r.Err() == nil && r.Remaining() > 0 {
		if err := s.readAnswer(r); err != nil {
			s.log.Error(context.Background(), "answer dispatch failed",
				logging.String("error", err.Error()))
			return
		}
	}
	if err := r.Err(); err != nil {
		s.log.Error(context.Background(), "truncated answer frame",
			logging.String("error", err.Error()))
	}
	s.updateHandleGauges()
}

func (s *Supervisor) drainGarbage() {
	s.garbage = nil
}

func (s *Supervisor) updateHandleGauges() {
	s.metrics.SetHandleCounts(s.registry.NodeCount(), s.registry.FieldCount())
}

// Close releases every pending request, handle, and session payload. The
// supervisor must not be used afterwards.
func (s *Supervisor) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = nil
	s.garbage = nil
	s.sentGet = nil
	s.registry.Clear()
	s.session.reset()
	s.updateHandleGauges()
	s.metrics.SetQueueDepth(0)
}

// checkRole verifies the controller holds the supervisor role, logging a
// diagnostic otherwise.
func (s *Supervisor) checkRole(op string) bool {
	if s.supervisorRole {
		return true
	}
	s.log.Error(context.Background(), "operation requires the supervisor role",
		logging.String("op", op))
	return false
}

// diag emits a misuse diagnostic unless the controller is quitting.
func (s *Supervisor) diag(op, msg string, fields ...logging.Field) {
	if s.driver.Quitting() {
		return
	}
	s.log.Error(context.Background(), msg, append(fields, logging.String("op", op))...)
}

// validNodeLocked checks membership of the handle in the registry by
// pointer identity, guarding callers that hold stale handles. Requires the
// step lock.
func (s *Supervisor) validNodeLocked(n *scene.Node, op string) bool {
	if s.registry.ValidNode(n) {
		return true
	}
	s.diag(op, "called with a nil or invalid node handle")
	return false
}

func invalidVector(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = math.NaN()
	}
	return v
}
