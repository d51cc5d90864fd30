package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRequest(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		counter := RecommenderRequestsTotal.WithLabelValues(EndpointGenres, OutcomeSuccess)
		before := testutil.ToFloat64(counter)

		RecordRequest(EndpointGenres, nil, 20*time.Millisecond)

		if after := testutil.ToFloat64(counter); after != before+1 {
			t.Errorf("expected counter to increase by 1, got %v -> %v", before, after)
		}
	})

	t.Run("Error", func(t *testing.T) {
		counter := RecommenderRequestsTotal.WithLabelValues(EndpointRecommend, OutcomeError)
		before := testutil.ToFloat64(counter)

		RecordRequest(EndpointRecommend, errors.New("boom"), time.Second)

		if after := testutil.ToFloat64(counter); after != before+1 {
			t.Errorf("expected error counter to increase by 1, got %v -> %v", before, after)
		}
	})

	t.Run("Canceled", func(t *testing.T) {
		counter := RecommenderRequestsTotal.WithLabelValues(EndpointFeedback, OutcomeCanceled)
		before := testutil.ToFloat64(counter)

		RecordRequest(EndpointFeedback, fmt.Errorf("wrapped: %w", context.Canceled), time.Millisecond)

		if after := testutil.ToFloat64(counter); after != before+1 {
			t.Errorf("expected canceled counter to increase by 1, got %v -> %v", before, after)
		}
	})

	t.Run("Observes Duration", func(t *testing.T) {
		RecordRequest(EndpointSamples, nil, 50*time.Millisecond)

		if n := testutil.CollectAndCount(RecommenderRequestDuration); n == 0 {
			t.Error("expected histogram series to be collected")
		}
	})
}

func TestRecordBatch(t *testing.T) {
	RecordBatch("samples", 7)

	if got := testutil.ToFloat64(BatchSongs.WithLabelValues("samples")); got != 7 {
		t.Errorf("expected gauge 7, got %v", got)
	}

	RecordBatch("samples", 0)
	if got := testutil.ToFloat64(BatchSongs.WithLabelValues("samples")); got != 0 {
		t.Errorf("expected gauge 0, got %v", got)
	}
}

func TestHandler(t *testing.T) {
	RecordBatch("recommendations", 3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "nunvibe_batch_songs") {
		t.Error("expected nunvibe_batch_songs in exposition")
	}
}
