package searchindex

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submitRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "addresskit",
		Subsystem: "searchindex",
		Name:      "submit_retries_total",
		Help:      "Bulk submit attempts that failed and triggered a backoff-and-retry.",
	})
	documentsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "addresskit",
		Subsystem: "searchindex",
		Name:      "documents_submitted_total",
		Help:      "Documents successfully submitted across all bulk requests.",
	})
)
