package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SupervisorCollector bundles Prometheus metrics for the supervisor client
// core: frame traffic, field-request queue behaviour, and handle registry
// sizes.
type SupervisorCollector struct {
	gatherer prometheus.Gatherer

	FramesWritten  prometheus.Counter
	AnswersRead    *prometheus.CounterVec
	RoundTrips     prometheus.Counter
	FlushDurations prometheus.Histogram

	RequestsQueued    *prometheus.CounterVec
	RequestsCoalesced *prometheus.CounterVec

	QueueDepth   prometheus.Gauge
	NodeHandles  prometheus.Gauge
	FieldHandles prometheus.Gauge
}

// NewSupervisorCollector registers supervisor Prometheus metrics against
// the provided registerer, defaulting to the global registry when nil.
func NewSupervisorCollector(reg prometheus.Registerer) (*SupervisorCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	frames, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "supervisor_frames_written_total",
		Help: "Outbound request frames serialised by the frame writer.",
	}), "supervisor_frames_written_total")
	if err != nil {
		return nil, err
	}

	answers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "supervisor_answers_read_total",
		Help: "Inbound answers dispatched by the frame reader, labeled by opcode.",
	}, []string{"opcode"})
	answers, err = registerCounterVec(reg, answers, "supervisor_answers_read_total")
	if err != nil {
		return nil, err
	}

	roundTrips, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "supervisor_round_trips_total",
		Help: "Synchronous flush round trips to the simulator.",
	}), "supervisor_round_trips_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "supervisor_flush_duration_seconds",
		Help:    "Flush round-trip latency in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}), "supervisor_flush_duration_seconds")
	if err != nil {
		return nil, err
	}

	queued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "supervisor_field_requests_total",
		Help: "Field requests appended to the pending queue, labeled by kind.",
	}, []string{"kind"})
	queued, err = registerCounterVec(reg, queued, "supervisor_field_requests_total")
	if err != nil {
		return nil, err
	}

	coalesced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "supervisor_field_requests_coalesced_total",
		Help: "Field operations answered from a pending SET without a round trip, labeled by kind.",
	}, []string{"kind"})
	coalesced, err = registerCounterVec(reg, coalesced, "supervisor_field_requests_coalesced_total")
	if err != nil {
		return nil, err
	}

	depth, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "supervisor_queue_depth",
		Help: "Pending field requests awaiting the next outbound frame.",
	}), "supervisor_queue_depth")
	if err != nil {
		return nil, err
	}
	nodes, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "supervisor_node_handles",
		Help: "Live node handles in the registry.",
	}), "supervisor_node_handles")
	if err != nil {
		return nil, err
	}
	fields, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "supervisor_field_handles",
		Help: "Live field handles in the registry.",
	}), "supervisor_field_handles")
	if err != nil {
		return nil, err
	}

	return &SupervisorCollector{
		gatherer:          gatherer,
		FramesWritten:     frames,
		AnswersRead:       answers,
		RoundTrips:        roundTrips,
		FlushDurations:    durations,
		RequestsQueued:    queued,
		RequestsCoalesced: coalesced,
		QueueDepth:        depth,
		NodeHandles:       nodes,
		FieldHandles:      fields,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SupervisorCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveFrameWritten records one serialised outbound frame.
func (c *SupervisorCollector) ObserveFrameWritten() {
	if c == nil || c.FramesWritten == nil {
		return
	}
	c.FramesWritten.Inc()
}

// ObserveAnswer records one dispatched inbound answer.
func (c *SupervisorCollector) ObserveAnswer(opcode string) {
	if c == nil || c.AnswersRead == nil {
		return
	}
	c.AnswersRead.WithLabelValues(opcode).Inc()
}

// ObserveRoundTrip records a completed flush with its latency.
func (c *SupervisorCollector) ObserveRoundTrip(seconds float64) {
	if c == nil {
		return
	}
	if c.RoundTrips != nil {
		c.RoundTrips.Inc()
	}
	if c.FlushDurations != nil {
		c.FlushDurations.Observe(seconds)
	}
}

// ObserveRequestQueued records a field request appended to the queue.
func (c *SupervisorCollector) ObserveRequestQueued(kind string) {
	if c == nil || c.RequestsQueued == nil {
		return
	}
	c.RequestsQueued.WithLabelValues(kind).Inc()
}

// ObserveCoalesced records a field operation served from a pending SET.
func (c *SupervisorCollector) ObserveCoalesced(kind string) {
	if c == nil || c.RequestsCoalesced == nil {
		return
	}
	c.RequestsCoalesced.WithLabelValues(kind).Inc()
}

// SetQueueDepth publishes the pending-queue length.
func (c *SupervisorCollector) SetQueueDepth(depth int) {
	if c == nil || c.QueueDepth == nil {
		return
	}
	c.QueueDepth.Set(float64(depth))
}

// SetHandleCounts publishes the live registry sizes so stale-handle leaks
// show up on a dashboard.
func (c *SupervisorCollector) SetHandleCounts(nodes, fields int) {
	if c == nil {
		return
	}
	if c.NodeHandles != nil {
		c.NodeHandles.Set(float64(nodes))
	}
	if c.FieldHandles != nil {
		c.FieldHandles.Set(float64(fields))
	}
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
