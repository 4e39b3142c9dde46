// Package metrics holds the Prometheus collectors for the display loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mudra_frames_processed_total",
		Help: "Total number of frames run through hand tracking",
	})

	DetectionErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mudra_detection_errors_total",
		Help: "Total number of frames where the landmark model failed",
	})

	DetectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mudra_detection_duration_seconds",
		Help:    "Time spent in hand detection per frame",
		Buckets: []float64{0.005, 0.01, 0.02, 0.033, 0.05, 0.1, 0.25, 0.5, 1},
	})

	HandsDetected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mudra_hands_detected",
		Help: "Number of hands found in the most recent frame",
	})

	HandsByLabelTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mudra_hands_total",
		Help: "Total number of hands detected, by handedness",
	}, []string{"handedness"})

	FramesPerSecond = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mudra_fps",
		Help: "Instantaneous frame rate of the display loop",
	})
)
