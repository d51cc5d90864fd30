package testing

import (
	"context"
	"sync"

	"github.com/desertthunder/nunvibe/internal/models"
)

// FakeRecommender is a test double for session.Recommender.
//
// Each method returns the matching canned value or error and records its arguments.
type FakeRecommender struct {
	mu sync.Mutex

	GenreNames      []string
	SampleSongs     []models.Song
	Recommendations []models.Song
	Refined         []models.Song

	GenresErr    error
	SamplesErr   error
	RecommendErr error
	RefineErr    error

	Calls         []string
	SampleGenres  []string
	SampleLimit   int
	RecommendReqs []models.RecommendRequest
	FeedbackReqs  []models.FeedbackRequest
}

func (f *FakeRecommender) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, name)
}

// CallCount returns how many requests were made.
func (f *FakeRecommender) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

func (f *FakeRecommender) Genres(ctx context.Context) ([]string, error) {
	f.record("genres")
	if f.GenresErr != nil {
		return nil, f.GenresErr
	}
	return f.GenreNames, nil
}

func (f *FakeRecommender) Samples(ctx context.Context, genres []string, limit int) ([]models.Song, error) {
	f.record("samples")
	f.mu.Lock()
	f.SampleGenres, f.SampleLimit = genres, limit
	f.mu.Unlock()
	if f.SamplesErr != nil {
		return nil, f.SamplesErr
	}
	return f.SampleSongs, nil
}

func (f *FakeRecommender) Recommend(ctx context.Context, req models.RecommendRequest) ([]models.Song, error) {
	f.record("recommend")
	f.mu.Lock()
	f.RecommendReqs = append(f.RecommendReqs, req)
	f.mu.Unlock()
	if f.RecommendErr != nil {
		return nil, f.RecommendErr
	}
	return f.Recommendations, nil
}

func (f *FakeRecommender) RecommendWithFeedback(ctx context.Context, req models.FeedbackRequest) ([]models.Song, error) {
	f.record("feedback")
	f.mu.Lock()
	f.FeedbackReqs = append(f.FeedbackReqs, req)
	f.mu.Unlock()
	if f.RefineErr != nil {
		return nil, f.RefineErr
	}
	return f.Refined, nil
}

// Songs builds songs named after their uris.
func Songs(uris ...string) []models.Song {
	songs := make([]models.Song, len(uris))
	for i, uri := range uris {
		songs[i] = models.Song{URI: uri, Name: "Song " + uri, Artist: "Artist " + uri}
	}
	return songs
}
