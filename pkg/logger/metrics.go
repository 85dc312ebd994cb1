package logger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics shared by the scanner and the API.

var (
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_evaluations_total",
			Help: "Total number of strategy evaluations",
		},
		[]string{"strategy", "outcome"}, // outcome: "confirmed" or "rejected"
	)

	ConditionNotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_condition_notes_total",
			Help: "Conditions that degraded to false or defaulted because of missing history",
		},
		[]string{"condition"},
	)

	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scan_duration_seconds",
			Help:    "Duration of a full scan run in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"strategy"},
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors",
		},
		[]string{"service", "error_type"},
	)
)
