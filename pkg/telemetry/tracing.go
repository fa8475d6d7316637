// Package telemetry sets up run tracing and the run metrics textfile.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	stdouttrace "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	otelsemconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ServiceName identifies the toolkit in exported traces.
const ServiceName = "sla-bill-toolkit"

// TraceOptions selects the span exporter. Endpoint wins over Writer; with
// neither set the global provider is left untouched.
type TraceOptions struct {
	ServiceName string
	// Endpoint is an OTLP/gRPC collector address, with or without scheme.
	Endpoint string
	// Writer receives pretty-printed spans when no endpoint is set.
	Writer io.Writer
}

// SetupTracerProvider installs a global tracer provider and returns its
// shutdown function.
func SetupTracerProvider(ctx context.Context, opts TraceOptions) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if strings.TrimSpace(opts.Endpoint) == "" && opts.Writer == nil {
		return noop, nil
	}
	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = ServiceName
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			otelsemconv.SchemaURL,
			otelsemconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return noop, fmt.Errorf("build trace resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	if strings.TrimSpace(opts.Endpoint) == "" {
		exporter, err = stdouttrace.New(
			stdouttrace.WithWriter(opts.Writer),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return noop, fmt.Errorf("create stdout trace exporter: %w", err)
		}
	} else {
		clean := strings.TrimPrefix(strings.TrimPrefix(opts.Endpoint, "http://"), "https://")
		exporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(clean),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return noop, fmt.Errorf("create otlp trace exporter: %w", err)
		}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
