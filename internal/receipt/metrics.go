package receipt

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "expense_tracker",
		Name:      "scans_total",
		Help:      "Scanned images by detected source, or by failure reason.",
	}, []string{"outcome"})

	candidatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "expense_tracker",
		Name:      "candidates_total",
		Help:      "Expense candidates produced, by source.",
	}, []string{"source"})

	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "expense_tracker",
		Name:      "ocr_duration_seconds",
		Help:      "Time spent in the OCR backend per image.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})
)
