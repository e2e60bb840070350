package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Response struct {
	StatusCode int
	Body       []byte
}

// Request describes a call against the configured base URL.
type Request struct {
	Method string
	Path   string
	Body   interface{} // encoded as JSON when non-nil
	Token  string      // sent as a bearer token when non-empty
}

type Interface interface {
	Get(ctx context.Context, path string) (*Response, error)
	Do(ctx context.Context, req Request) (*Response, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	observer   func(method string, status int, elapsed time.Duration)
	GetFunc    func(ctx context.Context, path string) (*Response, error)
	DoFunc     func(ctx context.Context, req Request) (*Response, error)
}

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// Backoff is the delay before the first retry; it doubles on each attempt.
	Backoff time.Duration
	// Observer is told about every completed attempt. Status is 0 on transport errors.
	Observer func(method string, status int, elapsed time.Duration)
}

var _ Interface = (*Client)(nil)

func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}

	if opts.Backoff == 0 {
		opts.Backoff = 100 * time.Millisecond
	}

	return &Client{
		baseURL: opts.BaseURL,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		observer:   opts.Observer,
	}
}

func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	if c.GetFunc != nil {
		return c.GetFunc(ctx, path)
	}
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path})
}

// Do sends the request. GET requests are retried with exponential backoff on
// transport errors and 5xx responses; other methods are sent once.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if c.DoFunc != nil {
		return c.DoFunc(ctx, req)
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	var payload []byte
	if req.Body != nil {
		var err error
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	attempts := 1
	if req.Method == http.MethodGet {
		attempts = c.maxRetries
	}

	requestID := uuid.NewString()
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<(attempt-1)) * c.backoff
			log.Debug().
				Str("path", req.Path).
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Msg("Retrying request")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := c.send(ctx, req, payload, requestID)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, err
			}
			continue
		}
		if resp.StatusCode >= http.StatusInternalServerError && attempt < attempts-1 {
			lastErr = &StatusError{StatusCode: resp.StatusCode, Message: extractMessage(resp.Body)}
			continue
		}
		return resp, nil
	}

	return nil, lastErr
}

func (c *Client) send(ctx context.Context, req Request, payload []byte, requestID string) (*Response, error) {
	var fullURL string
	if c.baseURL == "" {
		fullURL = req.Path // If no base URL, treat path as full URL
	} else {
		fullURL = c.baseURL + req.Path
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(req.Method, 0, start)
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			return
		}
	}(resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	c.observe(req.Method, resp.StatusCode, start)

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
	}, nil
}

func (c *Client) observe(method string, status int, start time.Time) {
	if c.observer != nil {
		c.observer(method, status, time.Since(start))
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}

// DecodeJSON decodes a 2xx response body into v. Non-2xx responses become a *StatusError
// carrying the backend's "message" or "error" field.
func DecodeJSON(resp *Response, v interface{}) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: extractMessage(resp.Body)}
	}
	if v == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func extractMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
