package agent

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smartshop/agent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:           baseURL,
		SearchTimeout:     5 * time.Second,
		RequestsPerMinute: 6000,
		Burst:             100,
	})
}

func sampleResult() domain.SearchResult {
	return domain.SearchResult{
		Summary: "Three solid options under budget.",
		Products: []domain.Product{
			{ID: "p1", Name: "Sony WH-1000XM5", Price: 349, Currency: "USD", Platform: "Amazon", Link: "https://example.com/p1"},
			{ID: "p2", Name: "Bose QC Ultra", Price: 379, Currency: "USD", Platform: "BestBuy", Link: "https://example.com/p2"},
			{ID: "p3", Name: "Anker Space Q45", Price: 99, Currency: "USD", Platform: "Amazon", Link: "https://example.com/p3"},
		},
		Intent: domain.SearchIntent{
			Category:    "headphones",
			BudgetRange: domain.BudgetRange{Min: 0},
			KeyFeatures: []string{"noise cancelling"},
			Urgency:     domain.UrgencyMedium,
		},
		Sources: []domain.Source{{Title: "Review", URI: "https://example.com/review"}},
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient(Config{BaseURL: "https://agent.example.com"})

	assert.NotNil(t, client)
	assert.Equal(t, "https://agent.example.com", client.baseURL)
	assert.Equal(t, 120*time.Second, client.searchTimeout)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
}

func TestResolveBaseURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare host gets https scheme", "api.example.com", "https://api.example.com"},
		{"explicit http kept", "http://127.0.0.1:8000", "http://127.0.0.1:8000"},
		{"explicit https kept", "https://agent.example.com", "https://agent.example.com"},
		{"trailing slash trimmed", "https://agent.example.com/", "https://agent.example.com"},
		{"empty falls back to loopback", "", "http://127.0.0.1:8000"},
		{"host with port", "agent.internal:9000", "https://agent.internal:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveBaseURL(tt.raw))
		})
	}
}

func TestSearch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "noise cancelling headphones", req.Query)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sampleResult())
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	result, err := client.Search(context.Background(), "noise cancelling headphones")

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Len(t, result.Products, 3)
	assert.Equal(t, "p1", result.Products[0].ID)
	assert.Equal(t, "headphones", result.Intent.Category)
	assert.Len(t, result.Sources, 1)
}

func TestSearch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL:           server.URL,
		SearchTimeout:     100 * time.Millisecond,
		RequestsPerMinute: 6000,
		Burst:             100,
	})

	result, err := client.Search(context.Background(), "slow query")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrSearchTimeout)
	assert.NotErrorIs(t, err, domain.ErrAgentRejected)
}

func TestSearch_CallerCancellation(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := newTestClient(server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-entered
		cancel()
	}()

	_, err := client.Search(ctx, "anything")

	// A local cancellation is neither a timeout nor a connectivity failure
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrAgentUnreachable)
	assert.NotErrorIs(t, err, domain.ErrSearchTimeout)
}

func TestSearch_ApplicationError_WithDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Error processing search: model overloaded"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	result, err := client.Search(context.Background(), "anything")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrAgentRejected)
	assert.Contains(t, err.Error(), "model overloaded")
	assert.NotErrorIs(t, err, domain.ErrSearchTimeout)
}

func TestSearch_ApplicationError_UnparseableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>upstream exploded</html>"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Search(context.Background(), "anything")

	assert.ErrorIs(t, err, domain.ErrAgentRejected)
	// Falls back to the HTTP status text when the body is not JSON
	assert.Contains(t, err.Error(), http.StatusText(http.StatusBadGateway))
}

func TestSearch_ConnectivityError_NamesBaseURL(t *testing.T) {
	// Closed server: transport-level failure
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := server.URL
	server.Close()

	client := newTestClient(base)

	_, err := client.Search(context.Background(), "anything")

	assert.ErrorIs(t, err, domain.ErrAgentUnreachable)
	assert.Contains(t, err.Error(), base)
}

func TestSearch_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	result, err := client.Search(context.Background(), "anything")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestSearch_ShapeValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.SearchResult)
	}{
		{"missing product id", func(r *domain.SearchResult) { r.Products[0].ID = "" }},
		{"duplicate product id", func(r *domain.SearchResult) { r.Products[1].ID = r.Products[0].ID }},
		{"missing product name", func(r *domain.SearchResult) { r.Products[2].Name = "" }},
		{"negative price", func(r *domain.SearchResult) { r.Products[0].Price = -1 }},
		{"rating out of range", func(r *domain.SearchResult) { r.Products[0].Rating = 6 }},
		{"unknown urgency", func(r *domain.SearchResult) { r.Intent.Urgency = "immediate" }},
		{"budget max below min", func(r *domain.SearchResult) {
			r.Intent.BudgetRange.Min = 100
			max := 50.0
			r.Intent.BudgetRange.Max = &max
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := sampleResult()
			tt.mutate(&payload)

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(payload)
			}))
			defer server.Close()

			client := newTestClient(server.URL)

			result, err := client.Search(context.Background(), "anything")

			assert.Nil(t, result)
			assert.ErrorIs(t, err, domain.ErrMalformedResponse)
		})
	}
}

func TestPredictPriceTrend_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/price-trend", r.URL.Path)

		var req trendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "p1", req.Product.ID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(trendResponse{Trend: "  Steady - unlikely to drop soon  "})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	trend, err := client.PredictPriceTrend(context.Background(), sampleResult().Products[0])

	require.NoError(t, err)
	assert.Equal(t, "Steady - unlikely to drop soon", trend)
}

func TestPredictPriceTrend_EmptyTrend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(trendResponse{Trend: "   "})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.PredictPriceTrend(context.Background(), sampleResult().Products[0])

	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestPredictPriceTrend_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"detail": "forecasting disabled"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.PredictPriceTrend(context.Background(), sampleResult().Products[0])

	assert.ErrorIs(t, err, domain.ErrAgentRejected)
	assert.Contains(t, err.Error(), "forecasting disabled")
}

func TestVisualizeTryOn_Success(t *testing.T) {
	frame := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/try-on", r.URL.Path)

		var req tryOnRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// Image travels base64-encoded with no data-URI prefix
		decoded, err := base64.StdEncoding.DecodeString(req.Base64Image)
		require.NoError(t, err)
		assert.Equal(t, frame, decoded)
		assert.Equal(t, "p2", req.Product.ID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tryOnResponse{Analysis: "These would suit you well."})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	analysis, err := client.VisualizeTryOn(context.Background(), frame, sampleResult().Products[1])

	require.NoError(t, err)
	assert.Equal(t, "These would suit you well.", analysis)
}

func TestVisualizeTryOn_EmptyAnalysis(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tryOnResponse{})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.VisualizeTryOn(context.Background(), []byte{0x01}, sampleResult().Products[0])

	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestExtractDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail present", `{"detail":"boom"}`, "boom"},
		{"detail blank", `{"detail":"   "}`, ""},
		{"no detail field", `{"message":"boom"}`, ""},
		{"not json", "plain text", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractDetail([]byte(tt.body)))
		})
	}
}
