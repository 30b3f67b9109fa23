package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"tubeqa/internal/services"
)

const (
	defaultHTTPTimeout = 60 * time.Second
	defaultBatchSize   = 64
	defaultMaxElapsed  = 30 * time.Second
)

// Config captures the runtime settings for the embeddings endpoint.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	BatchSize      int
	TimeoutSeconds int
}

// Client computes embedding vectors for text chunks.
type Client struct {
	cfg           Config
	httpClient    *http.Client
	maxElapsed    time.Duration
	retryInterval time.Duration
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMaxElapsed bounds the total time spent retrying a single batch.
func WithMaxElapsed(d time.Duration) Option {
	return func(c *Client) {
		c.maxElapsed = d
	}
}

// WithRetryInterval overrides the initial backoff delay (for testing).
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) {
		c.retryInterval = d
	}
}

// NewClient constructs an embeddings client from the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1/embeddings"
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		maxElapsed: defaultMaxElapsed,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Model reports the configured embedding model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// EmbedTexts returns one vector per input text, in input order. Inputs are
// sent in batches of the configured size.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, services.Wrap(services.ErrValidation, "embed", "embed_texts", "no input texts", nil)
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrProvider, "embed", "embed_texts", "api key required", nil)
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.cfg.BatchSize {
		end := start + c.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (c *Client) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	var vectors [][]float32
	op := func() error {
		result, err := c.requestOnce(ctx, batch)
		if err != nil {
			return err
		}
		vectors = result
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.maxElapsed
	if c.retryInterval > 0 {
		bo.InitialInterval = c.retryInterval
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if isThrottle(err) {
			return nil, services.Wrap(services.ErrRateLimited, "embed", "embed_batch", "", err)
		}
		return nil, services.Wrap(services.ErrProvider, "embed", "embed_batch", "", err)
	}
	return vectors, nil
}

type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("embeddings request: http %d: %s", e.Code, strings.TrimSpace(e.Body))
}

func isThrottle(err error) bool {
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests ||
			strings.Contains(statusErr.Body, "insufficient_quota")
	}
	return false
}

func (c *Client) requestOnce(ctx context.Context, batch []string) ([][]float32, error) {
	encoded, err := json.Marshal(embeddingRequest{Model: c.cfg.Model, Input: batch})
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("encode body: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("new request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		statusErr := &statusError{Code: resp.StatusCode, Body: string(body)}
		// Quota exhaustion and client errors do not clear on retry.
		if strings.Contains(statusErr.Body, "insufficient_quota") {
			return nil, backoff.Permanent(statusErr)
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 &&
			resp.StatusCode != http.StatusTooManyRequests &&
			resp.StatusCode != http.StatusRequestTimeout {
			return nil, backoff.Permanent(statusErr)
		}
		return nil, statusErr
	}

	var decoded embeddingResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	if decoded.Error != nil {
		return nil, backoff.Permanent(fmt.Errorf("api error: %s", decoded.Error.Message))
	}
	if len(decoded.Data) != len(batch) {
		return nil, backoff.Permanent(fmt.Errorf("expected %d vectors, got %d", len(batch), len(decoded.Data)))
	}

	vectors := make([][]float32, len(batch))
	for _, item := range decoded.Data {
		if item.Index < 0 || item.Index >= len(batch) {
			return nil, backoff.Permanent(fmt.Errorf("vector index %d out of range", item.Index))
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}
