// Package testutil provides a configurable mock Commodity Insights API
// server for tests: a token endpoint plus paged dataset endpoints serving
// the standard results/metadata envelope.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// Token is the access token the mock auth endpoint issues and the dataset
// endpoints require.
const Token = "mock-token"

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock API server for testing.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	authStatus int

	// Tracking
	RequestCount      int
	TokenRequests     int
	LastRequestHeader http.Header
	LastQuery         url.Values
}

// NewMockAPI creates a new mock API server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		authStatus: http.StatusOK,
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/api" {
			mock.handleAuth(w, r)
			return
		}

		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.LastQuery = r.URL.Query()
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "not found"}`))
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.TokenRequests = 0
	m.LastRequestHeader = nil
	m.LastQuery = nil
}

// SetAuthStatus makes the token endpoint answer with the given status.
// http.StatusOK restores normal token issuing.
func (m *MockAPI) SetAuthStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authStatus = status
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetDataset serves rows from a path with standard envelope paging.
// The handler honors the page and pageSize query parameters and requires
// a bearer token.
func (m *MockAPI) SetDataset(path string, rows []map[string]any) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+Token {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "invalid token"}`))
			return
		}

		page := intParam(r, "page", 1)
		pageSize := intParam(r, "pageSize", len(rows))
		if pageSize <= 0 {
			pageSize = 1
		}

		start := (page - 1) * pageSize
		end := start + pageSize
		if start > len(rows) {
			start = len(rows)
		}
		if end > len(rows) {
			end = len(rows)
		}

		totalPages := len(rows) / pageSize
		if len(rows)%pageSize > 0 {
			totalPages++
		}
		if totalPages == 0 {
			totalPages = 1
		}

		envelope := map[string]any{
			"results": rows[start:end],
			"metadata": map[string]any{
				"count":      len(rows),
				"page":       page,
				"pageSize":   pageSize,
				"totalPages": totalPages,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("x-ratelimit-remaining-day", "9999")
		json.NewEncoder(w).Encode(envelope)
	})
}

func (m *MockAPI) handleAuth(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.TokenRequests++
	status := m.authStatus
	m.mu.Unlock()

	if status != http.StatusOK {
		w.WriteHeader(status)
		w.Write([]byte(`{"error": "authentication failed"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"access_token": %q, "expires_in": 3600}`, Token)
}

// GetRequestCount returns the number of data requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetTokenRequests returns the number of token fetches.
func (m *MockAPI) GetTokenRequests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.TokenRequests
}

func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// NewPerSecondLimitResponse creates a 429 with daily quota remaining.
func NewPerSecondLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "too many requests"}`,
		Headers: map[string]string{
			"Content-Type":              "application/json",
			"x-ratelimit-remaining-day": "500",
		},
	}
}

// NewDailyLimitResponse creates a 429 with the daily quota spent.
func NewDailyLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "daily limit reached"}`,
		Headers: map[string]string{
			"Content-Type":              "application/json",
			"x-ratelimit-remaining-day": "0",
		},
	}
}
