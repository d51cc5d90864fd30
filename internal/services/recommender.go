// Recommender service client
//
// Talks JSON to the recommender backend: the genre catalog, genre samples and the two
// recommendation endpoints.
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/nunvibe/internal/metrics"
	"github.com/desertthunder/nunvibe/internal/models"
	"github.com/desertthunder/nunvibe/internal/shared"
	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const defaultRecommenderURL string = "http://localhost:8000"

type genresResponse struct {
	Genres []string `json:"genres"`
}

type samplesResponse struct {
	Samples []models.Song `json:"samples"`
}

type recommendationsResponse struct {
	Recommendations []models.Song `json:"recommendations"`
}

// RecommenderService is the HTTP client for the recommender backend.
type RecommenderService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewRecommenderService creates a client for baseURL. A positive requestsPerSecond paces
// outgoing calls; zero disables pacing.
func NewRecommenderService(baseURL string, client *http.Client, requestsPerSecond float64) *RecommenderService {
	if baseURL == "" {
		baseURL = defaultRecommenderURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}

	return &RecommenderService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		limiter:    limiter,
	}
}

// NewRecommenderFromConfig builds a client from the [recommender] config section.
func NewRecommenderFromConfig(cfg shared.RecommenderConfig, client *http.Client) *RecommenderService {
	return NewRecommenderService(cfg.BaseURL, client, cfg.RequestsPerSecond)
}

func (s *RecommenderService) Name() string { return "Recommender" }

// BaseURL returns the backend address without a trailing slash.
func (s *RecommenderService) BaseURL() string { return s.baseURL }

func (s *RecommenderService) doRequest(ctx context.Context, endpoint, method, path string, body, result any) (err error) {
	start := time.Now()
	defer func() { metrics.RecordRequest(endpoint, err, time.Since(start)) }()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail any `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != nil {
			return fmt.Errorf("%w: recommender error (status %d): %v", shared.ErrAPIRequest, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: recommender error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidResponse, err)
	}
	return nil
}

// Genres fetches the catalog.
//
// Calls GET /api/genres. A response without a genres key yields an empty catalog.
func (s *RecommenderService) Genres(ctx context.Context) ([]string, error) {
	var resp genresResponse
	if err := s.doRequest(ctx, metrics.EndpointGenres, http.MethodGet, "/api/genres", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Genres == nil {
		return []string{}, nil
	}
	return resp.Genres, nil
}

// Samples fetches up to limit sample songs for the given genres.
//
// Calls GET /api/genres/samples with one genres parameter per genre.
func (s *RecommenderService) Samples(ctx context.Context, genres []string, limit int) ([]models.Song, error) {
	params := url.Values{}
	for _, g := range genres {
		params.Add("genres", g)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp samplesResponse
	if err := s.doRequest(ctx, metrics.EndpointSamples, http.MethodGet, "/api/genres/samples?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return songsOrEmpty(resp.Samples), nil
}

// Recommend requests a first recommendation batch.
//
// Calls POST /api/recommend.
func (s *RecommenderService) Recommend(ctx context.Context, req models.RecommendRequest) ([]models.Song, error) {
	req.SeedGenres = stringsOrEmpty(req.SeedGenres)
	req.SeedURIs = stringsOrEmpty(req.SeedURIs)

	var resp recommendationsResponse
	if err := s.doRequest(ctx, metrics.EndpointRecommend, http.MethodPost, "/api/recommend", req, &resp); err != nil {
		return nil, err
	}
	return songsOrEmpty(resp.Recommendations), nil
}

// RecommendWithFeedback requests a refined batch from liked and disliked recommendations.
//
// Calls POST /api/recommend/feedback.
func (s *RecommenderService) RecommendWithFeedback(ctx context.Context, req models.FeedbackRequest) ([]models.Song, error) {
	req.SeedGenres = stringsOrEmpty(req.SeedGenres)
	req.SeedURIs = stringsOrEmpty(req.SeedURIs)
	req.LikedURIs = stringsOrEmpty(req.LikedURIs)
	req.DislikedURIs = stringsOrEmpty(req.DislikedURIs)

	var resp recommendationsResponse
	if err := s.doRequest(ctx, metrics.EndpointFeedback, http.MethodPost, "/api/recommend/feedback", req, &resp); err != nil {
		return nil, err
	}
	return songsOrEmpty(resp.Recommendations), nil
}

func songsOrEmpty(songs []models.Song) []models.Song {
	if songs == nil {
		return []models.Song{}
	}
	return songs
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
