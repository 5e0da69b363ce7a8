package fx

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "expense_tracker",
	Subsystem: "fx",
	Name:      "lookups_total",
	Help:      "Exchange rate lookups by where the answer came from.",
}, []string{"source"})
