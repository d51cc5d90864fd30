// Package testing holds the fakes and file helpers that nunvibe's package tests share: failing
// writers for the CLI output paths, a recording transport for the HTTP clients, and readers for
// the files an export or sweep leaves behind.
package testing

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
)

var (
	ErrWriteFailed = errors.New("write failed")
	ErrReadFailed  = errors.New("read failed")
)

// FWriter fails every write with [ErrWriteFailed].
type FWriter struct{}

func (f *FWriter) Write(p []byte) (int, error) { return 0, ErrWriteFailed }

// LimitedWriter passes the first n writes through to its target and fails the rest, which lets a
// test break a writer between a payload and its trailing newline.
type LimitedWriter struct {
	target  io.Writer
	allowed int
	Writes  int
}

func NewLimitedWriter(allowed int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{target: target, allowed: allowed}
}

func (l *LimitedWriter) Write(p []byte) (int, error) {
	if l.Writes >= l.allowed {
		return 0, ErrWriteFailed
	}
	l.Writes++
	return l.target.Write(p)
}

// MockRoundTripper answers every request with a fixed response or error and records the
// requests it saw.
type MockRoundTripper struct {
	response *http.Response
	err      error

	mu       sync.Mutex
	requests []*http.Request
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.response, m.err
}

// Requests returns the requests sent through the transport so far.
func (m *MockRoundTripper) Requests() []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*http.Request(nil), m.requests...)
}

// StringResponse builds a response with a plain body, for use with [NewMockRoundTripper].
func StringResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

// FCloser is a response body whose reads fail with [ErrReadFailed].
type FCloser struct{}

func (f *FCloser) Read(p []byte) (int, error) { return 0, ErrReadFailed }

func (f *FCloser) Close() error { return nil }

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// MustReadJSON decodes the JSON file at path into v, such as an exported batch or a sweep
// manifest.
func MustReadJSON(t *testing.T, path string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(MustReadFile(t, path)), v); err != nil {
		t.Fatalf("Invalid JSON in %s: %v", path, err)
	}
}
