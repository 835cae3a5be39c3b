package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const defaultServiceName = "icetime-service"

var (
	promReaderFactory = prometheusComponents
	otlpReaderFactory = buildOTLPReader
	instrumentFactory = newOtelInstruments
)

// TelemetryConfig controls how metrics are exported.
type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	OtlpEndpoint string
	OtlpInsecure bool
}

// Setup configures OpenTelemetry metrics with a Prometheus exporter and an
// optional OTLP exporter. It returns a Recorder, the Prometheus HTTP handler
// (nil when disabled) and a shutdown function.
func Setup(ctx context.Context, cfg TelemetryConfig) (*Recorder, http.Handler, func(context.Context) error, error) {
	if !cfg.Enabled {
		return NewRecorder(), nil, func(context.Context) error { return nil }, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultServiceName
	}

	promReader, promHandler, err := promReaderFactory()
	if err != nil {
		return nil, nil, nil, err
	}
	opts := []sdkmetric.Option{sdkmetric.WithReader(promReader)}

	if cfg.OtlpEndpoint != "" {
		otlpReader, err := otlpReaderFactory(ctx, cfg.OtlpEndpoint, cfg.OtlpInsecure)
		if err != nil {
			return nil, nil, nil, err
		}
		opts = append(opts, sdkmetric.WithReader(otlpReader))
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return nil, nil, nil, err
	}
	opts = append(opts, sdkmetric.WithResource(res))

	provider := sdkmetric.NewMeterProvider(opts...)
	inst, err := instrumentFactory(provider)
	if err != nil {
		return nil, nil, nil, err
	}
	return newRecorder(inst), promHandler, provider.Shutdown, nil
}

func buildOTLPReader(ctx context.Context, endpoint string, insecure bool) (sdkmetric.Reader, error) {
	otlpOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpoint)}
	if insecure {
		otlpOpts = append(otlpOpts, otlpmetrichttp.WithInsecure())
	}
	exp, err := otlpmetrichttp.New(ctx, otlpOpts...)
	if err != nil {
		return nil, err
	}
	return sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(15*time.Second)), nil
}

func prometheusComponents() (sdkmetric.Reader, http.Handler, error) {
	reg := prometheus.NewRegistry()
	exp, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, nil, err
	}
	return exp, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
}

type otelInstruments struct {
	ctx              context.Context
	requests         metric.Int64Counter
	requestLatencyMs metric.Float64Histogram
	assignments      metric.Int64Counter
	unassignments    metric.Int64Counter
	syncCycles       metric.Int64Counter
	syncErrors       metric.Int64Counter
	syncLatencyMs    metric.Float64Histogram
	slotsImported    metric.Int64Counter
	tasks            metric.Int64Counter
	taskLatencyMs    metric.Float64Histogram
}

func newOtelInstruments(provider metric.MeterProvider) (*otelInstruments, error) {
	meter := provider.Meter(defaultServiceName)
	inst := &otelInstruments{ctx: context.Background()}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
	}{
		{&inst.requests, "http_requests_total"},
		{&inst.assignments, "slot_assignments_total"},
		{&inst.unassignments, "slot_unassignments_total"},
		{&inst.syncCycles, "rink_sync_cycles_total"},
		{&inst.syncErrors, "rink_sync_errors_total"},
		{&inst.slotsImported, "rink_sync_slots_changed_total"},
		{&inst.tasks, "background_tasks_total"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	histograms := []struct {
		dst  *metric.Float64Histogram
		name string
	}{
		{&inst.requestLatencyMs, "http_request_duration_ms"},
		{&inst.syncLatencyMs, "rink_sync_duration_ms"},
		{&inst.taskLatencyMs, "background_task_duration_ms"},
	}
	for _, h := range histograms {
		hist, err := meter.Float64Histogram(h.name)
		if err != nil {
			return nil, err
		}
		*h.dst = hist
	}
	return inst, nil
}

func (o *otelInstruments) recordHTTPRequest(method, path string, status int, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrMethod, method),
		attribute.String(AttrPath, path),
		attribute.Int(AttrStatus, status),
	)
	o.requests.Add(o.ctx, 1, attrs)
	o.requestLatencyMs.Record(o.ctx, float64(duration.Milliseconds()), attrs)
}

func (o *otelInstruments) recordMutation(counter metric.Int64Counter, outcome string) {
	if o == nil {
		return
	}
	counter.Add(o.ctx, 1, metric.WithAttributes(attribute.String(AttrOutcome, outcome)))
}

func (o *otelInstruments) recordSync(duration time.Duration, imported int, err error) {
	if o == nil {
		return
	}
	o.syncCycles.Add(o.ctx, 1)
	o.syncLatencyMs.Record(o.ctx, float64(duration.Milliseconds()))
	o.slotsImported.Add(o.ctx, int64(imported))
	if err != nil {
		o.syncErrors.Add(o.ctx, 1)
	}
}

func (o *otelInstruments) recordTask(kind, outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrKind, kind),
		attribute.String(AttrOutcome, outcome),
	)
	o.tasks.Add(o.ctx, 1, attrs)
	o.taskLatencyMs.Record(o.ctx, float64(duration.Milliseconds()), attrs)
}
