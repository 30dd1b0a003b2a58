package observability

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/signalsfoundry/scene-supervisor/internal/logging"
)

// The supervisor's span vocabulary. A flush is the unit of work worth
// tracing here: one outbound frame paired with one answer frame, at a
// known simulation time.
const (
	flushSpanName = "supervisor.flush"

	attrSimulationSeconds = "supervisor.simulation_seconds"
	attrRequestBytes      = "supervisor.request_bytes"
	attrAnswerBytes       = "supervisor.answer_bytes"
	attrFailedStage       = "supervisor.failed_stage"
)

// TracingConfig governs flush-span export.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Exporter    string // stdout | otlp
	Endpoint    string // used when Exporter == otlp
	SampleRatio float64
}

// Tracing owns the tracer provider behind the supervisor's flush spans.
// The zero value and a disabled setup both trace into the void, so
// callers never branch on whether tracing is on.
type Tracing struct {
	provider *sdktrace.TracerProvider
	log      logging.Logger
}

// SetupTracing prepares flush-span export. With cfg.Enabled false it
// installs nothing and returns a no-op Tracing.
func SetupTracing(ctx context.Context, cfg TracingConfig, log logging.Logger) (*Tracing, error) {
	if log == nil {
		log = logging.Noop()
	}
	if !cfg.Enabled {
		return &Tracing{log: log}, nil
	}

	exporter, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	name := cfg.ServiceName
	if name == "" {
		name = "scene-supervisor"
	}
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", name),
	))
	if err != nil {
		return nil, fmt.Errorf("tracing: build resource: %w", err)
	}

	ratio := cfg.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}

	// Flush spans fire once per step round trip, so a fast simulation can
	// produce thousands per second; head sampling keeps export bounded.
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info(ctx, "flush tracing enabled",
		logging.String("service_name", name),
		logging.String("exporter", strings.ToLower(cfg.Exporter)),
		logging.Float("sample_ratio", ratio))
	return &Tracing{provider: provider, log: log}, nil
}

func newSpanExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(cfg.Exporter) {
	case "", "stdout":
		// Spans go to stderr like every other diagnostic, leaving stdout to
		// the controller program.
		return stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	case "otlp", "otlpgrpc":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	default:
		return nil, fmt.Errorf("tracing: unsupported exporter %q", cfg.Exporter)
	}
}

// Shutdown drains buffered spans, bounded so a wedged collector cannot
// hold up controller exit.
func (t *Tracing) Shutdown(ctx context.Context) {
	if t == nil || t.provider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := t.provider.Shutdown(ctx); err != nil {
		t.log.Warn(ctx, "tracing shutdown failed", logging.String("error", err.Error()))
	}
}

// FlushSpan covers one flush round trip: frame out, paired answer in.
type FlushSpan struct {
	span trace.Span
}

// StartFlushSpan opens the span for a flush at the given simulation time.
// It reads the global tracer provider, so it is a no-op until
// SetupTracing has installed one.
func StartFlushSpan(ctx context.Context, simulationSeconds float64, requestBytes int) (context.Context, *FlushSpan) {
	ctx, span := otel.Tracer("scene-supervisor/transport").Start(ctx, flushSpanName,
		trace.WithAttributes(
			attribute.Float64(attrSimulationSeconds, simulationSeconds),
			attribute.Int(attrRequestBytes, requestBytes),
		))
	return ctx, &FlushSpan{span: span}
}

// Fail marks the stage that broke the round trip and closes the span.
func (f *FlushSpan) Fail(stage string, err error) {
	f.span.SetAttributes(attribute.String(attrFailedStage, stage))
	f.span.RecordError(err)
	f.span.SetStatus(codes.Error, stage+" failed")
	f.span.End()
}

// End records the answer size and closes the span.
func (f *FlushSpan) End(answerBytes int) {
	f.span.SetAttributes(attribute.Int(attrAnswerBytes, answerBytes))
	f.span.End()
}
