package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	packagesAssessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pkgrisk_packages_assessed_total",
		Help: "Total packages assessed by resulting risk level",
	}, []string{"level"})

	packageFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pkgrisk_package_failures_total",
		Help: "Total packages whose analysis could not complete",
	})

	assessmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pkgrisk_assessment_duration_seconds",
		Help:    "Duration of a single package analysis including metadata retrieval",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30},
	})
)
