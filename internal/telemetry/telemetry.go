// Package telemetry wires addresskit's logging, tracing, and metrics
// ambient stack: log/slog bridged to OpenTelemetry via otelslog, context-
// scoped attributes via claircore/toolkit/log, a trace exporter over
// OTLP/gRPC, and package-level tracer vars in the shape used throughout the
// teacher repository's datastore and indexer packages.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	cclog "github.com/quay/claircore/toolkit/log"
)

// Shutdown tears down the tracer provider, flushing any buffered spans.
type Shutdown func(context.Context) error

// Bootstrap configures the global tracer provider and returns a logger
// bridged into OpenTelemetry plus a Shutdown func. When endpoint is empty,
// tracing is configured with an always-off sampler — spans are created but
// never exported, mirroring the teacher's "disabled" tracing path without
// needing a second code path.
func Bootstrap(ctx context.Context, serviceName, endpoint string) (*slog.Logger, Shutdown, error) {
	res, err := resource.Merge(resource.Default(),
		resource.NewSchemaless(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: building resource: %w", err)
	}

	var opts []sdktrace.TracerProviderOption
	opts = append(opts, sdktrace.WithResource(res))

	noop := endpoint == ""
	if noop {
		opts = append(opts, sdktrace.WithSampler(sdktrace.NeverSample()))
	} else {
		exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
		if err != nil {
			return nil, nil, fmt.Errorf("telemetry: building OTLP exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp), sdktrace.WithSampler(sdktrace.AlwaysSample()))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	// cclog.WrapHandler splices attributes attached to a context via
	// [WithFields] into every record logged through that context, ahead of
	// the OTLP bridge — so a region/file/row attached once at the top of a
	// loading step shows up on every log line underneath it, without
	// threading a *slog.Logger value through every call.
	logger := slog.New(cclog.WrapHandler(otelslog.NewHandler(serviceName)))
	slog.SetDefault(logger)

	return logger, tp.Shutdown, nil
}

// WithFields attaches key/value pairs to ctx so every log call made with
// that context (or a context derived from it) carries them, per
// [cclog.With].
func WithFields(ctx context.Context, args ...any) context.Context {
	return cclog.With(ctx, args...)
}
