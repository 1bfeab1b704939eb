package agent

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/smartshop/agent/internal/domain"
	"golang.org/x/time/rate"
)

const (
	defaultSearchTimeout     = 120 * time.Second
	defaultRequestsPerMinute = 60
	defaultBurst             = 10

	// Response bodies from the agent backend are model output; cap what we
	// are willing to buffer.
	maxResponseBytes = 4 << 20
)

// Config holds the settings for the agent backend client
type Config struct {
	BaseURL           string
	SearchTimeout     time.Duration
	RequestsPerMinute int
	Burst             int
}

// Client handles communication with the generative-AI shopping backend.
// All three operations share one error-normalization policy: transport
// failures, timeouts, and application errors each surface as a distinct
// sentinel whose message is the only diagnostic the caller sees.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	searchTimeout time.Duration
	rateLimiter   *rate.Limiter
}

// NewClient creates a new agent backend client. The base URL is resolved
// once here and fixed for the process lifetime.
func NewClient(cfg Config) *Client {
	searchTimeout := cfg.SearchTimeout
	if searchTimeout <= 0 {
		searchTimeout = defaultSearchTimeout
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = defaultRequestsPerMinute
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}

	return &Client{
		// No transport-level timeout: search carries its own 120s context
		// deadline and the other calls run on transport defaults.
		httpClient:    &http.Client{},
		baseURL:       ResolveBaseURL(cfg.BaseURL),
		searchTimeout: searchTimeout,
		rateLimiter:   rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst),
	}
}

// ResolveBaseURL normalizes a configured backend address. A value with no
// scheme gets the secure scheme prepended; trailing slashes are dropped.
func ResolveBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		base = "http://127.0.0.1:8000"
	}
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return strings.TrimRight(base, "/")
}

// Wire payloads of the backend HTTP contract

type searchRequest struct {
	Query string `json:"query"`
}

type trendRequest struct {
	Product domain.Product `json:"product"`
}

type trendResponse struct {
	Trend string `json:"trend"`
}

type tryOnRequest struct {
	Base64Image string         `json:"base64Image"`
	Product     domain.Product `json:"product"`
}

type tryOnResponse struct {
	Analysis string `json:"analysis"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Search submits a natural-language query and returns the structured result.
// The call is bounded by the configured client-side timeout; on expiry the
// in-flight request is cancelled and a timeout error distinct from any server
// error is returned.
func (c *Client) Search(ctx context.Context, query string) (*domain.SearchResult, error) {
	log.Printf("[AGENT] Search called with query: %q", query)

	ctx, cancel := context.WithTimeout(ctx, c.searchTimeout)
	defer cancel()

	body, err := c.postJSON(ctx, "/api/search", searchRequest{Query: query})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", domain.ErrSearchTimeout, c.searchTimeout)
		}
		return nil, err
	}

	var result domain.SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		log.Printf("[AGENT] Search decode error: %v", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if err := validateSearchResult(&result); err != nil {
		log.Printf("[AGENT] Search shape validation failed: %v", err)
		return nil, err
	}

	log.Printf("[AGENT] Search returned %d products for query: %q", len(result.Products), query)
	return &result, nil
}

// PredictPriceTrend asks the backend for a short price forecast for one
// product. No timeout beyond transport defaults; callers isolate failures
// per product.
func (c *Client) PredictPriceTrend(ctx context.Context, product domain.Product) (string, error) {
	body, err := c.postJSON(ctx, "/api/price-trend", trendRequest{Product: product})
	if err != nil {
		return "", err
	}

	var resp trendResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	trend := strings.TrimSpace(resp.Trend)
	if trend == "" {
		return "", fmt.Errorf("%w: empty trend", domain.ErrMalformedResponse)
	}
	return trend, nil
}

// VisualizeTryOn sends a single still JPEG frame plus the product and returns
// the stylist analysis text. The image is base64-encoded with no data-URI
// prefix, per the wire contract.
func (c *Client) VisualizeTryOn(ctx context.Context, imageJPEG []byte, product domain.Product) (string, error) {
	req := tryOnRequest{
		Base64Image: base64.StdEncoding.EncodeToString(imageJPEG),
		Product:     product,
	}

	body, err := c.postJSON(ctx, "/api/try-on", req)
	if err != nil {
		return "", err
	}

	var resp tryOnResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	analysis := strings.TrimSpace(resp.Analysis)
	if analysis == "" {
		return "", fmt.Errorf("%w: empty analysis", domain.ErrMalformedResponse)
	}
	return analysis, nil
}

// postJSON executes one POST round trip and normalizes transport and
// application errors into the domain taxonomy.
func (c *Client) postJSON(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, context.DeadlineExceeded
		}
		if errors.Is(err, context.Canceled) {
			return nil, context.Canceled
		}
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "SmartShop/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, context.DeadlineExceeded
		}
		if errors.Is(err, context.Canceled) {
			// Caller backed out; not a connectivity failure
			return nil, context.Canceled
		}
		log.Printf("[AGENT] Transport error for %s: %v", path, err)
		return nil, fmt.Errorf("%w: cannot reach %s: %v", domain.ErrAgentUnreachable, c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, context.DeadlineExceeded
		}
		if errors.Is(err, context.Canceled) {
			return nil, context.Canceled
		}
		return nil, fmt.Errorf("%w: cannot reach %s: %v", domain.ErrAgentUnreachable, c.baseURL, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail := extractDetail(body)
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		log.Printf("[AGENT] Backend error for %s - Status: %d, Detail: %s", path, resp.StatusCode, detail)
		return nil, fmt.Errorf("%w: %s (status %d)", domain.ErrAgentRejected, detail, resp.StatusCode)
	}

	return body, nil
}

// extractDetail parses the {detail} convention carried by non-2xx responses.
// Returns "" when the body is not parseable JSON or carries no detail.
func extractDetail(body []byte) string {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return ""
	}
	return strings.TrimSpace(errResp.Detail)
}
