package searchindex

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("github.com/gnaf-kit/addresskit/internal/searchindex")

// Default backoff schedule (spec §4.6, configurable via
// ADDRESSKIT_INDEX_BACKOFF{,_INCREMENT,_MAX}).
const (
	DefaultInitialBackoff   = 30 * time.Second
	DefaultBackoffIncrement = 30 * time.Second
	DefaultMaxBackoff       = 600 * time.Second
)

// SinkOptions configures a Sink. The zero value uses the spec's documented
// defaults and no rate limiting.
type SinkOptions struct {
	InitialBackoff   time.Duration
	BackoffIncrement time.Duration
	MaxBackoff       time.Duration
	// Limiter caps steady-state submission throughput independent of the
	// error-driven backoff above (ADDRESSKIT_INDEX_RATE). Nil disables the
	// cap.
	Limiter *rate.Limiter
	// BulkTimeout bounds a single Backend.Bulk call, separate from the retry
	// loop around it (the binary sets it from ADDRESSKIT_INDEX_TIMEOUT, 30s
	// by default). Zero disables the per-call deadline.
	BulkTimeout time.Duration
}

func (o SinkOptions) initialBackoff() time.Duration {
	if o.InitialBackoff > 0 {
		return o.InitialBackoff
	}
	return DefaultInitialBackoff
}

func (o SinkOptions) backoffIncrement() time.Duration {
	if o.BackoffIncrement > 0 {
		return o.BackoffIncrement
	}
	return DefaultBackoffIncrement
}

func (o SinkOptions) maxBackoff() time.Duration {
	if o.MaxBackoff > 0 {
		return o.MaxBackoff
	}
	return DefaultMaxBackoff
}

// Sink buffers nothing itself — it submits whatever batch it's given — but
// owns the retry-on-error backoff loop and the steady-state rate cap that
// sit between the CSV driver's chunk callback (C5) and the backend.
type Sink struct {
	Backend Backend
	Options SinkOptions
}

// NewSink constructs a Sink against backend with opts. A zero SinkOptions
// value is valid and uses spec defaults with no rate cap.
func NewSink(backend Backend, opts SinkOptions) *Sink {
	return &Sink{Backend: backend, Options: opts}
}

// Submit submits items as one bulk request, retrying the entire batch with
// linearly growing backoff (initial delay, +increment per attempt, capped)
// whenever the backend reports a top-level or per-item error. The retry
// loop is unbounded by design (spec §4.6): the backend is usually the
// ingestion bottleneck, and dropping records is worse than pausing.
//
// This is a hand-rolled linear schedule rather than
// [github.com/cenkalti/backoff/v5]'s exponential/constant backoffs (used
// elsewhere in this repo, e.g. internal/fetch): neither models "+30s per
// attempt, capped at 600s", and bending an exponential schedule to imitate
// linear growth would misrepresent what spec §4.6 actually asks for.
func (s *Sink) Submit(ctx context.Context, items []BulkItem, opts BulkOptions) error {
	ctx, span := tracer.Start(ctx, "searchindex.Submit")
	defer span.End()

	delay := s.Options.initialBackoff()
	for attempt := 1; ; attempt++ {
		if s.Options.Limiter != nil {
			if err := s.Options.Limiter.Wait(ctx); err != nil {
				return err
			}
		}

		result, err := s.callBulk(ctx, items, opts)
		if err == nil && !result.Errors && len(result.Items) == 0 {
			documentsSubmittedTotal.Add(float64(len(items)))
			return nil
		}

		submitRetriesTotal.Inc()
		slog.WarnContext(ctx, "searchindex: bulk submit failed, retrying",
			"attempt", attempt, "items", len(items), "delay", delay, "error", err, "item_errors", len(result.Items))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay += s.Options.backoffIncrement()
		if max := s.Options.maxBackoff(); delay > max {
			delay = max
		}
	}
}

// callBulk issues one Backend.Bulk call, bounding it with BulkTimeout when
// configured so a single stuck call can't stall the retry loop forever.
func (s *Sink) callBulk(ctx context.Context, items []BulkItem, opts BulkOptions) (BulkResult, error) {
	if s.Options.BulkTimeout <= 0 {
		return s.Backend.Bulk(ctx, items, opts)
	}
	bulkCtx, cancel := context.WithTimeout(ctx, s.Options.BulkTimeout)
	defer cancel()
	return s.Backend.Bulk(bulkCtx, items, opts)
}
