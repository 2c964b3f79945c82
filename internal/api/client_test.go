package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fundview/marketsync/internal/model"
)

// TestNewClient tests client construction with various options.
func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("https://api.example.com")

		if c.baseURL != "https://api.example.com" {
			t.Errorf("baseURL = %q, want %q", c.baseURL, "https://api.example.com")
		}
		if c.httpClient.Timeout != 10*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 10*time.Second)
		}
		if c.maxRetries != 3 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 3)
		}
		if c.retryBackoff != 500*time.Millisecond {
			t.Errorf("retryBackoff = %v, want %v", c.retryBackoff, 500*time.Millisecond)
		}
		if c.logger == nil {
			t.Error("logger should not be nil")
		}
	})

	t.Run("with timeout option", func(t *testing.T) {
		c := NewClient("https://api.example.com", WithTimeout(5*time.Second))
		if c.httpClient.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 5*time.Second)
		}
	})

	t.Run("with retries option", func(t *testing.T) {
		c := NewClient("https://api.example.com", WithRetries(5, 2*time.Second))
		if c.maxRetries != 5 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 5)
		}
		if c.retryBackoff != 2*time.Second {
			t.Errorf("retryBackoff = %v, want %v", c.retryBackoff, 2*time.Second)
		}
	})

	t.Run("with logger option", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		c := NewClient("https://api.example.com", WithLogger(logger))
		if c.logger != logger {
			t.Error("logger not set correctly")
		}
	})

	t.Run("with custom HTTP client", func(t *testing.T) {
		customClient := &http.Client{Timeout: 10 * time.Second}
		c := NewClient("https://api.example.com", WithHTTPClient(customClient))
		if c.httpClient != customClient {
			t.Error("custom HTTP client not set")
		}
	})
}

// TestAPIError tests the APIError type.
func TestAPIError(t *testing.T) {
	t.Run("Error method", func(t *testing.T) {
		err := &APIError{
			StatusCode: 404,
			Message:    "Not Found",
			Body:       []byte(`{"error": "not found"}`),
		}
		expected := "market api error 404: Not Found"
		if err.Error() != expected {
			t.Errorf("Error() = %q, want %q", err.Error(), expected)
		}
	})

	t.Run("IsRetryable", func(t *testing.T) {
		tests := []struct {
			code     int
			expected bool
		}{
			{500, true},
			{502, true},
			{503, true},
			{429, true},
			{400, false},
			{401, false},
			{404, false},
			{499, false},
		}

		for _, tt := range tests {
			err := &APIError{StatusCode: tt.code}
			if got := err.IsRetryable(); got != tt.expected {
				t.Errorf("IsRetryable() for status %d = %v, want %v", tt.code, got, tt.expected)
			}
		}
	})
}

// TestDoRequest tests the HTTP request functionality.
func TestDoRequest(t *testing.T) {
	t.Run("successful request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Accept") != "application/json" {
				t.Errorf("Accept header = %q, want %q", r.Header.Get("Accept"), "application/json")
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status": "ok"}`))
		}))
		defer server.Close()

		c := NewClient(server.URL)
		body, err := c.doRequest(context.Background(), http.MethodGet, "/test", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(body) != `{"status": "ok"}` {
			t.Errorf("body = %q, want %q", string(body), `{"status": "ok"}`)
		}
	})

	t.Run("4xx error returns APIError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": "not found"}`))
		}))
		defer server.Close()

		c := NewClient(server.URL)
		_, err := c.doRequest(context.Background(), http.MethodGet, "/test", nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}

		apiErr, ok := err.(*APIError)
		if !ok {
			t.Fatalf("expected *APIError, got %T", err)
		}
		if apiErr.StatusCode != 404 {
			t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, 404)
		}
		if !strings.Contains(string(apiErr.Body), "not found") {
			t.Errorf("Body should contain 'not found', got %q", string(apiErr.Body))
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		c := NewClient(server.URL)
		ctx, cancel := context.WithCancel(context.Background())
		cancel() // Cancel immediately

		_, err := c.doRequest(ctx, http.MethodGet, "/test", nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "context canceled") {
			t.Errorf("error should contain 'context canceled', got %v", err)
		}
	})
}

// TestDoWithRetry tests the retry logic.
func TestDoWithRetry(t *testing.T) {
	t.Run("succeeds on first try", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"ok": true}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, WithRetries(3, 10*time.Millisecond))
		_, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempts != 1 {
			t.Errorf("attempts = %d, want 1", attempts)
		}
	})

	t.Run("retries on 5xx and succeeds", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := atomic.AddInt32(&attempts, 1)
			if n < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`error`))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"ok": true}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, WithRetries(3, 10*time.Millisecond))
		_, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempts != 3 {
			t.Errorf("attempts = %d, want 3", attempts)
		}
	})

	t.Run("retries on 429 and succeeds", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := atomic.AddInt32(&attempts, 1)
			if n == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`rate limited`))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"ok": true}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, WithRetries(3, 10*time.Millisecond))
		_, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempts != 2 {
			t.Errorf("attempts = %d, want 2", attempts)
		}
	})

	t.Run("does not retry on 4xx (except 429)", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`bad request`))
		}))
		defer server.Close()

		c := NewClient(server.URL, WithRetries(3, 10*time.Millisecond))
		_, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if attempts != 1 {
			t.Errorf("attempts = %d, want 1", attempts)
		}
	})

	t.Run("max retries exceeded", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`error`))
		}))
		defer server.Close()

		c := NewClient(server.URL, WithRetries(2, 10*time.Millisecond))
		_, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "max retries exceeded") {
			t.Errorf("error should contain 'max retries exceeded', got %v", err)
		}
		// 1 initial + 2 retries = 3 attempts
		if attempts != 3 {
			t.Errorf("attempts = %d, want 3", attempts)
		}
	})
}

// TestGetGlobalMarkets tests the bucketed snapshot endpoint.
func TestGetGlobalMarkets(t *testing.T) {
	t.Run("successful response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/market/global" {
				t.Errorf("path = %q, want %q", r.URL.Path, "/api/market/global")
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{
				"update_time": "2026-01-05 10:00:00",
				"markets": {
					"cn": {"name": "A股", "indices": [{"code": "sh000001", "name": "上证指数", "value": 3100.5, "change_percent": 0.3}]},
					"us": {"name": "US", "indices": [{"symbol": "DJI", "name": "Dow Jones", "price": 38500.0, "change": -0.1}]}
				}
			}`))
		}))
		defer server.Close()

		c := NewClient(server.URL)
		resp, err := c.GetGlobalMarkets(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.UpdateTime != "2026-01-05 10:00:00" {
			t.Errorf("UpdateTime = %q, want %q", resp.UpdateTime, "2026-01-05 10:00:00")
		}
		if len(resp.Markets) != 2 {
			t.Errorf("len(Markets) = %d, want 2", len(resp.Markets))
		}
	})

	t.Run("error response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		c := NewClient(server.URL, WithRetries(0, time.Millisecond))
		_, err := c.GetGlobalMarkets(context.Background())
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError in wrapped error, got %T: %v", err, err)
		}
	})
}

// TestGetMarketIndices tests the core index endpoint.
func TestGetMarketIndices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/market/indices" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/api/market/indices")
		}
		json.NewEncoder(w).Encode(IndicesResponse{
			Indices: []model.RawIndex{
				{Code: "sh000001", Name: "上证指数"},
				{Code: "sz399001", Name: "深证成指"},
			},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL)
	resp, err := c.GetMarketIndices(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Indices) != 2 {
		t.Errorf("len(Indices) = %d, want 2", len(resp.Indices))
	}
	if resp.Indices[0].Code != "sh000001" {
		t.Errorf("Indices[0].Code = %q, want %q", resp.Indices[0].Code, "sh000001")
	}
}

// TestFlatten tests bucket flattening order and normalization.
func TestFlatten(t *testing.T) {
	v := func(f float64) *float64 { return &f }

	t.Run("canonical bucket order", func(t *testing.T) {
		resp := &GlobalMarketsResponse{
			Markets: map[string]MarketBucket{
				"fx":        {Indices: []model.RawIndex{{Code: "usdcny", Value: v(7.1)}}},
				"cn":        {Indices: []model.RawIndex{{Code: "sh000001", Value: v(3100)}}},
				"crypto":    {Indices: []model.RawIndex{{Code: "btc", Value: v(95000)}}},
				"us":        {Indices: []model.RawIndex{{Code: "DJI", Value: v(38500)}}},
				"commodity": {Indices: []model.RawIndex{{Code: "xau", Value: v(2600)}}},
			},
		}

		quotes := resp.Flatten()
		want := []string{"sh000001", "DJI", "xau", "btc", "usdcny"}
		if len(quotes) != len(want) {
			t.Fatalf("len(quotes) = %d, want %d", len(quotes), len(want))
		}
		for i, code := range want {
			if quotes[i].Code != code {
				t.Errorf("quotes[%d].Code = %q, want %q", i, quotes[i].Code, code)
			}
		}
	})

	t.Run("unknown buckets appended sorted", func(t *testing.T) {
		resp := &GlobalMarketsResponse{
			Markets: map[string]MarketBucket{
				"us":   {Indices: []model.RawIndex{{Code: "DJI"}}},
				"zeta": {Indices: []model.RawIndex{{Code: "z1"}}},
				"alt":  {Indices: []model.RawIndex{{Code: "a1"}}},
			},
		}

		quotes := resp.Flatten()
		want := []string{"DJI", "a1", "z1"}
		if len(quotes) != len(want) {
			t.Fatalf("len(quotes) = %d, want %d", len(quotes), len(want))
		}
		for i, code := range want {
			if quotes[i].Code != code {
				t.Errorf("quotes[%d].Code = %q, want %q", i, quotes[i].Code, code)
			}
		}
	})

	t.Run("entries without code dropped", func(t *testing.T) {
		resp := &GlobalMarketsResponse{
			Markets: map[string]MarketBucket{
				"cn": {Indices: []model.RawIndex{{Code: "sh000001"}, {Name: "orphan"}}},
			},
		}
		quotes := resp.Flatten()
		if len(quotes) != 1 {
			t.Errorf("len(quotes) = %d, want 1", len(quotes))
		}
	})

	t.Run("empty response", func(t *testing.T) {
		resp := &GlobalMarketsResponse{}
		if quotes := resp.Flatten(); len(quotes) != 0 {
			t.Errorf("len(quotes) = %d, want 0", len(quotes))
		}
	})
}

// TestJSONUnmarshalErrors tests error handling for invalid JSON.
func TestJSONUnmarshalErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`not valid json`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.GetGlobalMarkets(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "unmarshal") {
		t.Errorf("error should contain 'unmarshal', got %v", err)
	}
}
