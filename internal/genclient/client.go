// Package genclient issues generation requests to the Gemini API over raw
// HTTP, with a bounded retry protocol around transient failures. The
// service enforces per-caller rate limits, so callers run requests
// sequentially and rely on this package's backoff rather than concurrency.
package genclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"contentsmith/internal/assembler"
	"contentsmith/internal/content"
)

// Config holds client configuration.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:     apiKey,
		BaseURL:    "https://generativelanguage.googleapis.com/v1beta",
		Model:      "gemini-2.5-flash",
		Timeout:    2 * time.Minute,
		MaxRetries: 4,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// Temperature trade-off: showcase copy gets more creative freedom, every
// other style favors consistency.
const (
	showcaseTemperature = 0.9
	defaultTemperature  = 0.4
)

// maxJitter is added to every backoff wait to spread retries.
const maxJitter = time.Second

// Client talks to the generateContent endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *zap.Logger

	// jitter is swapped out in tests for determinism.
	jitter func() time.Duration
}

// New creates a client. Zero-value config fields fall back to defaults.
func New(cfg Config, log *zap.Logger) *Client {
	def := DefaultConfig(cfg.APIKey)
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.Named("genclient"),
		jitter: func() time.Duration {
			return time.Duration(rand.Int63n(int64(maxJitter)))
		},
	}
}

// Model returns the configured model identifier, recorded into cache
// entries alongside each generation.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Request/response wire structures for generateContent.

type geminiRequest struct {
	Contents          []geminiContent  `json:"contents"`
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Generate sends one request for a template's content, retrying transient
// failures with jittered exponential backoff. The response is normalized
// field by field; once any response arrives, the result is always a
// well-formed Generated.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string, style assembler.Style) (*content.Generated, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("API key not configured")
	}

	temperature := defaultTemperature
	if style == assembler.StyleShowcase {
		temperature = showcaseTemperature
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: userPrompt}}},
		},
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: systemPrompt}},
		},
		GenerationConfig: generationConfig{
			Temperature:      temperature,
			MaxOutputTokens:  2048,
			ResponseMIMEType: "application/json",
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.cfg.BaseURL, c.cfg.Model, c.cfg.APIKey)

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		text, err := c.send(ctx, url, jsonData)
		if err == nil {
			gen := normalize(parseResponseJSON(text))
			gen.Style = string(style)
			gen.GeneratedAt = time.Now()
			return &gen, nil
		}

		apiErr, transient := asRetryable(err)
		if !transient {
			return nil, err
		}
		lastErr = err

		wait := c.backoff(attempt, apiErr)
		c.log.Warn("transient generation failure, backing off",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", c.cfg.MaxRetries),
			zap.Duration("wait", wait),
			zap.Error(err))

		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// send performs one request/response cycle and returns the response text.
func (c *Client) send(ctx context.Context, url string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Body:       truncate(string(respBody), 300),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response envelope: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("API error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}

	var sb bytes.Buffer
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

// backoff computes the wait before the next attempt: the provider's retry
// hint when present, otherwise capped exponential backoff, plus jitter.
func (c *Client) backoff(attempt int, apiErr *APIError) time.Duration {
	var wait time.Duration
	if apiErr != nil && apiErr.RetryAfter > 0 {
		wait = apiErr.RetryAfter
	} else {
		wait = c.cfg.BaseDelay << uint(attempt)
		if wait > c.cfg.MaxDelay {
			wait = c.cfg.MaxDelay
		}
	}
	return wait + c.jitter()
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
