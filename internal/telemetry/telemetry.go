package telemetry

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type Options struct {
	ServiceName string
	// Endpoint is the OTLP/HTTP collector, with or without scheme. Empty
	// disables tracing.
	Endpoint    string
	SampleRatio float64
}

func noopShutdown(context.Context) error { return nil }

// Init installs the global trace provider and propagators. Exporter setup
// failures leave tracing off without failing startup.
func Init(ctx context.Context, opts Options) (shutdown func(context.Context) error, err error) {
	host, insecure, ok := collectorHost(opts.Endpoint)
	if !ok {
		return noopShutdown, nil
	}

	initCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exporterOpts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(host),
		otlptracehttp.WithTimeout(3 * time.Second),
		otlptracehttp.WithRetry(otlptracehttp.RetryConfig{Enabled: false}),
	}
	if insecure {
		exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(initCtx, exporterOpts...)
	if err != nil {
		return noopShutdown, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(opts.ServiceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio(opts.SampleRatio)))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// collectorHost strips the scheme from endpoint. Plain hosts and http://
// are exported without TLS.
func collectorHost(endpoint string) (host string, insecure bool, ok bool) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", false, false
	}
	if !strings.Contains(endpoint, "://") {
		return strings.TrimRight(endpoint, "/"), true, true
	}
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Host == "" {
		return "", false, false
	}
	return parsed.Host, parsed.Scheme != "https", true
}

func sampleRatio(ratio float64) float64 {
	if ratio <= 0 || ratio > 1 {
		return 1
	}
	return ratio
}
