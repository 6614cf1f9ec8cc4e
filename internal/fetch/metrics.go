package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "addresskit",
		Subsystem: "fetch",
		Name:      "bytes_total",
		Help:      "Total bytes successfully written to disk across all fetch attempts.",
	})
	fetchRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "addresskit",
		Subsystem: "fetch",
		Name:      "retries_total",
		Help:      "Total retryable fetch attempts that triggered a backoff-and-retry.",
	})
	fetchFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "addresskit",
		Subsystem: "fetch",
		Name:      "failures_total",
		Help:      "Total terminal fetch failures, labeled by reason.",
	}, []string{"reason"})
)
