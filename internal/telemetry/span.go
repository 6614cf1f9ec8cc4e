package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// WithSpan wraps fn in a span named name on tracer, recording the error (if
// any) and setting span status, mirroring the span-wrapper idiom in the
// teacher's datastore/postgres/v2/common.go.
func WithSpan(ctx context.Context, tracer trace.Tracer, name string, fn func(context.Context) error) (err error) {
	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "method error")
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()
	err = fn(ctx)
	return err
}
