package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var orgEdits = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "org",
	Subsystem: "hierarchy",
	Name:      "edits_total",
	Help:      "Total number of hierarchy edits broken down by field and result.",
}, []string{"field", "result"})

func recordEdit(field Field, err error) {
	orgEdits.WithLabelValues(string(field), resultLabel(err)).Inc()
}
