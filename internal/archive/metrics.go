package archive

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	archiveEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "addresskit",
		Subsystem: "archive",
		Name:      "entries_total",
		Help:      "Zip entries processed, labeled by outcome (dir, extracted, skipped).",
	}, []string{"outcome"})
	archiveBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "addresskit",
		Subsystem: "archive",
		Name:      "bytes_total",
		Help:      "Uncompressed bytes written during extraction.",
	})
)
