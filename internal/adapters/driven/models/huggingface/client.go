// Package huggingface provides model adapters backed by the Hugging Face
// Inference API. All specialised pipelines (classification, extraction,
// zero-shot relevance, generation, embeddings) share one Client so that
// requests from every stage flow through a single rate limiter.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Default configuration values.
const (
	DefaultBaseURL           = "https://api-inference.huggingface.co"
	DefaultTimeout           = 60 * time.Second
	DefaultRequestsPerSecond = 4
	DefaultBurst             = 8
)

// Config holds connection settings shared by all Hugging Face adapters.
type Config struct {
	// BaseURL is the Inference API base URL (default: https://api-inference.huggingface.co).
	BaseURL string

	// APIKey is the Hugging Face access token. Requests are sent
	// unauthenticated when empty, which the API throttles heavily.
	APIKey string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// RequestsPerSecond caps the outgoing request rate (default: 4).
	RequestsPerSecond float64
}

// Client is a shared HTTP client for the Inference API. Hosted models
// are rate limited per token, so every adapter draws from one limiter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
}

// inferenceOptions are passed with every request so that cold models
// queue the call instead of failing while they load.
type inferenceOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

var waitForModel = inferenceOptions{WaitForModel: true}

// NewClient creates a client for the Hugging Face Inference API.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), DefaultBurst),
	}
}

// call posts a JSON payload to the model's inference endpoint and
// decodes the response into out.
func (c *Client) call(ctx context.Context, model string, payload, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/models/"+model,
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("huggingface error (status %d): failed to read response", resp.StatusCode)
		}
		return fmt.Errorf("huggingface error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// Ping validates connectivity and credentials with a minimal request
// against the given model. A 503 means the model is still loading,
// which already proves the endpoint and token are good.
func (c *Client) Ping(ctx context.Context, model string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/models/"+model,
		bytes.NewReader([]byte(`{"inputs":"ping"}`)),
	)
	if err != nil {
		return fmt.Errorf("huggingface: failed to create ping request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("huggingface: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("huggingface: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("huggingface: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
