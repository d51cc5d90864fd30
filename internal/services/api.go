// Raw HTTP access to the recommender, used by the api debug commands
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/nunvibe/internal/metrics"
	json "github.com/goccy/go-json"
)

// APIService sends arbitrary requests to the recommender and returns the raw response.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a raw client for baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = defaultRecommenderURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// Pretty returns the body indented when it is JSON and verbatim otherwise.
func (r *APIResponse) Pretty() string {
	if !r.IsJSON {
		return string(r.Body)
	}
	out, err := json.MarshalIndent(r.JSONData, "", "  ")
	if err != nil {
		return string(r.Body)
	}
	return string(out)
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPost, path, data)
}

// Do sends body (which may be nil) with method to path. Non-2xx statuses are not errors.
func (a *APIService) Do(ctx context.Context, method, path string, body []byte) (resp *APIResponse, err error) {
	start := time.Now()
	defer func() { metrics.RecordRequest(metrics.EndpointRaw, err, time.Since(start)) }()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	resp = &APIResponse{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		resp.IsJSON = true
		resp.JSONData = jsonData
	}
	return resp, nil
}
