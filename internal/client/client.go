// Package client provides the HTTP transport for the atelier REST API.
// It handles token authentication, retries for idempotent requests, and
// translation of API error bodies into a typed error taxonomy.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/atelier/client/internal/config"
	"github.com/atelier/client/internal/logger"
)

// Observer receives a notification for every completed HTTP request.
// Implementations must be safe for concurrent use.
type Observer interface {
	Observe(method, path string, status int, duration time.Duration, err error)
}

// Client is the HTTP client for the atelier API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiVersion  string
	headers     map[string]string
	limiter     *rate.Limiter
	log         *zap.Logger
	observer    Observer
	retryConfig RetryConfig

	mu    sync.RWMutex
	token string
}

// RetryConfig configures retry behavior for idempotent requests.
type RetryConfig struct {
	MaxRetries  int
	RetryDelay  time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	ShouldRetry func(resp *http.Response, err error) bool
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		RetryDelay: 500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
		ShouldRetry: func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			// Retry on 5xx errors and 429 (Too Many Requests)
			return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		},
	}
}

// Option customizes a Client.
type Option func(*Client)

// WithObserver registers a request observer (e.g., a metrics collector).
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithRetryConfig overrides the default retry configuration.
func WithRetryConfig(rc RetryConfig) Option {
	return func(c *Client) { c.retryConfig = rc }
}

// New creates a new API client from target configuration.
func New(cfg config.TargetConfig, log *zap.Logger, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.TLSSkipVerify,
		},
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	client := &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiVersion:  strings.Trim(cfg.APIVersion, "/"),
		headers:     make(map[string]string),
		log:         log,
		retryConfig: DefaultRetryConfig(),
	}

	client.headers["Content-Type"] = "application/json"
	client.headers["Accept"] = "application/json"
	client.headers["User-Agent"] = "atelier-client/1.0"
	for k, v := range cfg.Headers {
		client.headers[k] = v
	}

	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		client.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Request represents an HTTP request to be executed.
type Request struct {
	Method      string
	Path        string
	QueryParams map[string]string
	Headers     map[string]string
	Body        interface{}
}

// Response represents an HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// SetToken installs the session token sent as "Authorization: Token <key>".
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// ClearToken removes the session token.
func (c *Client) ClearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

// Token returns the current session token ("" when unauthenticated).
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// BaseURL returns the client's base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do executes an HTTP request. GET requests are retried per the retry
// configuration; mutating requests are issued exactly once so that a
// timed-out create can never be silently duplicated.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	u, err := c.buildURL(req.Path, req.QueryParams)
	if err != nil {
		return nil, fmt.Errorf("building URL: %w", err)
	}

	var bodyBytes []byte
	if req.Body != nil {
		bodyBytes, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
	}

	maxRetries := 0
	if req.Method == http.MethodGet {
		maxRetries = c.retryConfig.MaxRetries
	}

	// Reuse a request id already carried by the context so a whole workflow
	// can be correlated; otherwise mint one for this request.
	requestID := logger.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx, log := logger.WithRequestID(ctx, c.log, requestID)

	var lastResp *Response
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.calculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		var bodyReader io.Reader
		if bodyBytes != nil {
			bodyReader = bytes.NewReader(bodyBytes)
		}

		httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), bodyReader)
		if err != nil {
			return nil, fmt.Errorf("creating HTTP request: %w", err)
		}

		c.setHeaders(httpReq, req.Headers)
		httpReq.Header.Set("X-Request-ID", requestID)

		start := time.Now()
		httpResp, err := c.httpClient.Do(httpReq)
		duration := time.Since(start)

		resp := &Response{Duration: duration}
		if httpResp != nil {
			resp.StatusCode = httpResp.StatusCode
			resp.Headers = httpResp.Header
		}
		if err == nil && httpResp.Body != nil {
			resp.Body, err = io.ReadAll(httpResp.Body)
			httpResp.Body.Close()
			if err != nil {
				err = fmt.Errorf("reading response body: %w", err)
			}
		}

		if c.observer != nil {
			c.observer.Observe(req.Method, req.Path, resp.StatusCode, duration, err)
		}
		log.Debug("request completed",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", duration),
			zap.Error(err),
		)

		lastResp = resp
		lastErr = err

		if attempt < maxRetries && c.retryConfig.ShouldRetry(httpResp, err) {
			continue
		}

		if err != nil {
			return resp, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
		}
		return resp, nil
	}

	if lastErr != nil {
		return lastResp, fmt.Errorf("%s %s: %w", req.Method, req.Path, lastErr)
	}
	return lastResp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, queryParams map[string]string) (*Response, error) {
	return c.Do(ctx, Request{
		Method:      http.MethodGet,
		Path:        path,
		QueryParams: queryParams,
	})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, Request{
		Method: http.MethodPut,
		Path:   path,
		Body:   body,
	})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{
		Method: http.MethodDelete,
		Path:   path,
	})
}

// buildURL builds a complete URL from path and query parameters.
func (c *Client) buildURL(path string, queryParams map[string]string) (*url.URL, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if c.apiVersion != "" && !strings.HasPrefix(path, "/"+c.apiVersion+"/") {
		path = "/" + c.apiVersion + path
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	if len(queryParams) > 0 {
		q := u.Query()
		for k, v := range queryParams {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	return u, nil
}

// setHeaders sets headers on the request.
func (c *Client) setHeaders(req *http.Request, customHeaders map[string]string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range customHeaders {
		req.Header.Set(k, v)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
}

// calculateBackoff calculates the backoff delay for the given attempt.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	delay := float64(c.retryConfig.RetryDelay) * math.Pow(c.retryConfig.Multiplier, float64(attempt-1))
	if delay > float64(c.retryConfig.MaxDelay) {
		delay = float64(c.retryConfig.MaxDelay)
	}
	// Add jitter (±25%)
	jitter := delay * 0.25
	delay = delay + (rand.Float64()*2-1)*jitter
	return time.Duration(delay)
}
