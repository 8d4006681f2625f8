package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var territoryAllocations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "territory",
	Subsystem: "allocation",
	Name:      "runs_total",
	Help:      "Total number of territory allocation runs broken down by status.",
}, []string{"status"})

func recordAllocation(status Status) {
	territoryAllocations.WithLabelValues(string(status)).Inc()
}
