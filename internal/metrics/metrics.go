// Package metrics provides Prometheus instrumentation for recommender traffic.
//
// Usage:
//
//	// Record a finished request
//	RecordRequest(EndpointRecommend, nil, 120*time.Millisecond)
//
//	// Record the size of the batch now on screen
//	RecordBatch("samples", 10)
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Endpoint labels, one per recommender route.
const (
	EndpointGenres    = "genres"
	EndpointSamples   = "samples"
	EndpointRecommend = "recommend"
	EndpointFeedback  = "feedback"
	EndpointRaw       = "raw"
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
)

var (
	// RecommenderRequestsTotal counts recommender calls by endpoint and outcome.
	RecommenderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nunvibe_recommender_requests_total",
			Help: "Total number of recommender requests",
		},
		[]string{"endpoint", "outcome"},
	)

	// RecommenderRequestDuration tracks recommender call latency.
	RecommenderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nunvibe_recommender_request_duration_seconds",
			Help:    "Duration of recommender requests in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	// BatchSongs is the size of the most recent batch per kind.
	BatchSongs = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nunvibe_batch_songs",
			Help: "Number of songs in the most recent batch",
		},
		[]string{"kind"},
	)
)

// RecordRequest records one recommender call.
func RecordRequest(endpoint string, err error, duration time.Duration) {
	RecommenderRequestsTotal.WithLabelValues(endpoint, outcome(err)).Inc()
	RecommenderRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordBatch sets the batch gauge for kind.
func RecordBatch(kind string, songs int) {
	BatchSongs.WithLabelValues(kind).Set(float64(songs))
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}
