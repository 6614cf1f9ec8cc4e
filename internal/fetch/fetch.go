// Package fetch implements addresskit's resumable, retrying HTTP archive
// fetcher (spec §4.1, component C1). It streams a single remote artifact to
// a destination path, resuming partial downloads by byte range, retrying
// transient failures with exponential backoff and jitter, and detecting
// truncated or duplicated transfers before they can masquerade as a
// complete archive.
package fetch

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"

	"github.com/gnaf-kit/addresskit/internal/telemetry"
)

var tracer = otel.Tracer("github.com/gnaf-kit/addresskit/internal/fetch")

// Options configures one call to [Fetcher.Fetch]. Zero values take the
// defaults named in spec §4.1.
type Options struct {
	// ExpectedSize, when known, drives the resume-or-restart decision and
	// the two corruption checks. Zero means unknown.
	ExpectedSize int64

	Client *http.Client

	ConnectTimeout time.Duration
	SocketTimeout  time.Duration

	Progress         ProgressFunc
	ProgressInterval time.Duration

	MaxRetries         int
	InitialBackoff     time.Duration
	BackoffMultiplier  float64
	MaxBackoff         time.Duration
	JitterFraction     float64
	MaxRangeRestarts   int
}

func (o *Options) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return http.DefaultClient
}

func (o *Options) connectTimeout() time.Duration {
	if o.ConnectTimeout > 0 {
		return o.ConnectTimeout
	}
	return 300 * time.Second
}

func (o *Options) socketTimeout() time.Duration {
	if o.SocketTimeout > 0 {
		return o.SocketTimeout
	}
	return 300 * time.Second
}

func (o *Options) maxRetries() int {
	if o.MaxRetries > 0 {
		return o.MaxRetries
	}
	return 5
}

func (o *Options) initialBackoff() time.Duration {
	if o.InitialBackoff > 0 {
		return o.InitialBackoff
	}
	return 5 * time.Second
}

func (o *Options) backoffMultiplier() float64 {
	if o.BackoffMultiplier > 0 {
		return o.BackoffMultiplier
	}
	return 2
}

func (o *Options) maxBackoff() time.Duration {
	if o.MaxBackoff > 0 {
		return o.MaxBackoff
	}
	return 60 * time.Second
}

func (o *Options) jitterFraction() float64 {
	if o.JitterFraction > 0 {
		return o.JitterFraction
	}
	return 0.25
}

func (o *Options) maxRangeRestarts() int {
	if o.MaxRangeRestarts > 0 {
		return o.MaxRangeRestarts
	}
	return 3
}

// Fetcher downloads artifacts to disk with resume/retry/corruption-detection
// semantics. The zero value is ready to use.
type Fetcher struct{}

// Fetch downloads url to dest, resuming a partial download already on disk
// and retrying transient failures, per spec §4.1.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, dest string, opts *Options) error {
	if opts == nil {
		opts = &Options{}
	}

	var rangeRestarts int
	attempt := 0
	for {
		size, statErr := fileSize(dest)
		if statErr != nil {
			return &DownloadError{Code: CodeProto, Attempt: attempt, Err: statErr}
		}

		resuming := false
		rangeStart := int64(0)
		switch {
		case size == 0:
			// start fresh
		case opts.ExpectedSize > 0 && size >= opts.ExpectedSize:
			if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
				return &DownloadError{Code: CodeProto, Attempt: attempt, Err: err}
			}
		case opts.ExpectedSize > 0 && size < opts.ExpectedSize:
			rangeStart, resuming = size, true
		default:
			// expected size unknown: trust what's on disk.
			rangeStart, resuming = size, true
		}

		var result attemptResult
		var attemptErr error
		spanErr := telemetry.WithSpan(ctx, tracer, "fetch.attempt", func(ctx context.Context) error {
			result, attemptErr = f.doAttempt(ctx, rawURL, dest, rangeStart, resuming, opts, attempt)
			return attemptErr
		})
		_ = spanErr

		switch {
		case attemptErr == nil && result.serverIgnoredRange:
			// spec §4.1: 200 OK when resume was requested. Delete and
			// restart, not counted as a retry.
			slog.WarnContext(ctx, "fetch: server ignored range request, restarting fresh", "url", rawURL)
			if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
				return &DownloadError{Code: CodeProto, Attempt: attempt, Err: err}
			}
			continue
		case attemptErr == nil && result.done:
			fetchBytesTotal.Add(float64(result.bytesTransferred))
			return nil
		case isRangeNotSatisfiable(attemptErr):
			rangeRestarts++
			if rangeRestarts > opts.maxRangeRestarts() {
				return attemptErr
			}
			slog.WarnContext(ctx, "fetch: range not satisfiable, restarting", "url", rawURL, "restart", rangeRestarts)
			if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
				return &DownloadError{Code: CodeProto, Attempt: attempt, Err: err}
			}
			continue
		default:
			de, ok := attemptErr.(*DownloadError)
			if !ok || !de.Retryable {
				fetchFailuresTotal.WithLabelValues("permanent").Inc()
				return attemptErr
			}
			attempt++
			if attempt > opts.maxRetries() {
				fetchFailuresTotal.WithLabelValues("retries_exceeded").Inc()
				return &DownloadError{Code: CodeRetriesExceeded, Attempt: attempt, Retryable: false, Err: de}
			}
			fetchRetriesTotal.Inc()
			delay := backoffDelay(opts, attempt)
			slog.WarnContext(ctx, "fetch: retrying after error", "url", rawURL, "attempt", attempt, "delay", delay, "code", de.Code)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
	}
}

func isRangeNotSatisfiable(err error) bool {
	de, ok := err.(*DownloadError)
	return ok && de.Code == CodeRangeNotSatisfied
}

// backoffDelay computes the exponential-with-jitter delay for the given
// attempt, per spec §4.1's defaults. The schedule parameters are held in a
// [backoff.ExponentialBackOff] (the teacher's own indirect dependency,
// promoted to direct use here); the capped growth and the jitter are
// computed by the loop below.
func backoffDelay(opts *Options, attempt int) time.Duration {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = opts.initialBackoff()
	eb.Multiplier = opts.backoffMultiplier()
	eb.MaxInterval = opts.maxBackoff()
	eb.RandomizationFactor = 0 // jitter applied explicitly below to match spec's +/-25% contract
	d := eb.InitialInterval
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * eb.Multiplier)
		if d > eb.MaxInterval {
			d = eb.MaxInterval
			break
		}
	}
	jitter := opts.jitterFraction()
	factor := 1 + (rand.Float64()*2-1)*jitter
	return time.Duration(float64(d) * factor)
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
