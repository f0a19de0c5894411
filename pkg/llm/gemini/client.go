// Package gemini streams chat completions from the Google Gemini API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/malvinraqin/portfolio/pkg/llm"
)

// DefaultBaseURL is the public Gemini API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const providerName = "google"

var (
	// ErrMissingAPIKey is returned when the client has no API key.
	ErrMissingAPIKey = errors.New("gemini: api key is empty")

	// ErrUnsupportedRole is returned for turns Gemini has no role for.
	ErrUnsupportedRole = errors.New("gemini: unsupported role")
)

// Config configures a Client.
type Config struct {
	// APIKey is sent as the x-goog-api-key header.
	APIKey string

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// HTTPClient defaults to a client with a two minute timeout.
	HTTPClient *http.Client
}

// Client is an llm.Provider backed by the Gemini streamGenerateContent API.
// It holds no conversation state and is safe for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ llm.Provider = (*Client)(nil)

// New creates a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 2 * time.Minute,
		}
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return providerName
}

// ChatStream starts a streaming generation. Upstream HTTP failures are
// returned here as *llm.ProviderError, before any chunk is produced.
func (c *Client) ChatStream(ctx context.Context, req *llm.ChatRequest) (llm.Stream, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	body, err := newGenerateContentRequest(req)
	if err != nil {
		return nil, err
	}

	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.baseURL, url.PathEscape(req.Model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	c.logger.Debug("forwarding streaming request to gemini",
		zap.String("model", req.Model),
		zap.Int("content_count", len(body.Contents)),
		zap.Int("body_size", len(reqBody)),
	)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		defer httpResp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(httpResp.Body, 64*1024))
		return nil, newProviderError(httpResp.StatusCode, raw)
	}

	return newStream(httpResp), nil
}
