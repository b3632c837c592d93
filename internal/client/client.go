// Package client talks to the remote conversation store of the travel assistant.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/wayfinder/internal/metrics"
	"github.com/raphaelgruber/wayfinder/internal/models"
	"github.com/raphaelgruber/wayfinder/internal/schema"
)

// Remote store paths.
const (
	HistoryPath = "/api/chat/history"
	SendPath    = "/api/chat/send"
	DetailsPath = "/api/chat/details"
)

// DefaultMaxResponseBytes caps how much of a response body is read.
const DefaultMaxResponseBytes = 8 << 20

// slowRequestThreshold is the duration above which calls are logged at WARN level.
const slowRequestThreshold = 5 * time.Second

// Client is an HTTP client for the remote conversation store.
// Every response body passes through the schema validator before it is returned.
type Client struct {
	baseURL    string
	httpClient *http.Client
	validator  *schema.Validator
	maxBody    int64
	metrics    *metrics.Collector
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout of the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxResponseBytes sets the largest response body the client accepts.
func WithMaxResponseBytes(n int64) Option {
	return func(c *Client) { c.maxBody = n }
}

// WithMetrics records call timings into m.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the store at baseURL (e.g. http://localhost:5000).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		validator:  schema.New(),
		maxBody:    DefaultMaxResponseBytes,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// History fetches the authoritative conversation history.
func (c *Client) History(ctx context.Context) ([]models.Message, error) {
	var resp models.HistoryResponse
	if err := c.do(ctx, metrics.OpHistory, http.MethodGet, HistoryPath, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// Send submits a user message. The message is sent verbatim.
func (c *Client) Send(ctx context.Context, message string) (*models.SendResponse, error) {
	var resp models.SendResponse
	body := struct {
		Message string `json:"message"`
	}{Message: message}
	if err := c.do(ctx, metrics.OpSend, http.MethodPost, SendPath, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Details fetches enrichment for one offer.
func (c *Client) Details(ctx context.Context, req models.DetailEnrichmentRequest) (*models.DetailEnrichmentResult, error) {
	var resp models.DetailsResponse
	if err := c.do(ctx, metrics.OpDetails, http.MethodPost, DetailsPath, req, &resp); err != nil {
		return nil, err
	}
	return resp.Details, nil
}

// do performs one request and decodes the validated response into dst.
// Non-2xx statuses fail regardless of the body.
func (c *Client) do(ctx context.Context, op, method, path string, body, dst any) (err error) {
	requestID := uuid.NewString()
	start := time.Now()
	status := 0

	defer func() {
		c.observe(op, requestID, status, time.Since(start), err)
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, RequestID: requestID, Err: err}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	// One byte past the limit tells an oversized body from one that fits exactly.
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return &TransportError{Op: op, RequestID: requestID, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			RequestID:  requestID,
			Body:       truncate(strings.TrimSpace(string(data)), maxErrorBodyLen),
		}
	}
	if int64(len(data)) > c.maxBody {
		return &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			RequestID:  requestID,
			Err:        fmt.Errorf("%w: limit is %d bytes", ErrResponseTooLarge, c.maxBody),
		}
	}

	if err := c.validator.Decode(data, dst); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Client) observe(op, requestID string, status int, d time.Duration, err error) {
	attrs := []any{
		"op", op,
		"status", status,
		"duration_ms", d.Milliseconds(),
		"request_id", requestID,
	}

	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordFailure(op, d)
		}
		attrs = append(attrs, "error", err.Error())
		c.logger.Error("remote call failed", attrs...)
		return
	}

	if c.metrics != nil {
		c.metrics.RecordTiming(op, d)
	}
	if d > slowRequestThreshold {
		c.logger.Warn("slow remote call", attrs...)
	} else {
		c.logger.Debug("remote call completed", attrs...)
	}
}
