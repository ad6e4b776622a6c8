package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atelier/client/internal/config"
	"github.com/atelier/client/internal/logger"
)

func testRetryConfig(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries: maxRetries,
		RetryDelay: time.Millisecond,
		MaxDelay:   10 * time.Millisecond,
		Multiplier: 2.0,
		ShouldRetry: func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		},
	}
}

// TestClientCreation tests basic client creation.
func TestClientCreation(t *testing.T) {
	c, err := New(config.TargetConfig{
		BaseURL:    "http://localhost:8000",
		APIVersion: "api/v1",
		Timeout:    30 * time.Second,
	}, nil)
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.Equal(t, "http://localhost:8000", c.BaseURL())
}

// TestClientRequiresBaseURL tests that creation fails without a base URL.
func TestClientRequiresBaseURL(t *testing.T) {
	_, err := New(config.TargetConfig{}, nil)
	assert.Error(t, err)
}

// TestBasicRequest tests request execution, path building and headers.
func TestBasicRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/orders/", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Empty(t, r.Header.Get("Authorization"))

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"count": 0, "results": []}`))
	}))
	defer server.Close()

	c, err := New(config.TargetConfig{BaseURL: server.URL, APIVersion: "api/v1"}, nil)
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), "/orders/", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestTokenHeader tests that an installed token is sent on every request and
// dropped after ClearToken.
func TestTokenHeader(t *testing.T) {
	var gotAuth atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c, err := New(config.TargetConfig{BaseURL: server.URL, APIVersion: "api/v1"}, nil)
	require.NoError(t, err)

	c.SetToken("abc123")
	_, err = c.Get(context.Background(), "/users/me/", nil)
	require.NoError(t, err)
	assert.Equal(t, "Token abc123", gotAuth.Load())

	c.ClearToken()
	_, err = c.Get(context.Background(), "/users/me/", nil)
	require.NoError(t, err)
	assert.Equal(t, "", gotAuth.Load())
}

// TestQueryParams tests query parameter encoding.
func TestQueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("owner_id"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c, err := New(config.TargetConfig{BaseURL: server.URL, APIVersion: "api/v1"}, nil)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/form-data/cars/", map[string]string{"owner_id": "7"})
	require.NoError(t, err)
}

// TestGetRetriedOnServerError tests that GETs are retried until they succeed.
func TestGetRetriedOnServerError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	c, err := New(config.TargetConfig{BaseURL: server.URL, APIVersion: "api/v1"}, nil,
		WithRetryConfig(testRetryConfig(3)))
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), "/orders/", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), attempts.Load())
}

// TestMutatingRequestsNeverRetried tests that POST, PUT and DELETE are issued
// exactly once even when the server answers 500.
func TestMutatingRequestsNeverRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c, err := New(config.TargetConfig{BaseURL: server.URL, APIVersion: "api/v1"}, nil,
		WithRetryConfig(testRetryConfig(3)))
	require.NoError(t, err)

	resp, err := c.Post(context.Background(), "/orders/create/", map[string]int{"client": 1})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, int32(1), attempts.Load())

	attempts.Store(0)
	resp, err = c.Put(context.Background(), "/orders/1/", map[string]int{"client": 1})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, int32(1), attempts.Load())

	attempts.Store(0)
	resp, err = c.Delete(context.Background(), "/orders/1/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, int32(1), attempts.Load())
}

// TestRequestIDStableAcrossRetries tests that all attempts of one logical
// request share an X-Request-ID.
func TestRequestIDStableAcrossRetries(t *testing.T) {
	var ids []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get("X-Request-ID"))
		if len(ids) < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c, err := New(config.TargetConfig{BaseURL: server.URL, APIVersion: "api/v1"}, nil,
		WithRetryConfig(testRetryConfig(2)))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/orders/", nil)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, ids[0], ids[1])
	assert.NotEmpty(t, ids[0])
}

// TestCallerSuppliedRequestID tests that a request id already carried by the
// context is sent instead of a freshly minted one.
func TestCallerSuppliedRequestID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "workflow-42", r.Header.Get("X-Request-ID"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c, err := New(config.TargetConfig{BaseURL: server.URL, APIVersion: "api/v1"}, nil)
	require.NoError(t, err)

	ctx, _ := logger.WithRequestID(context.Background(), zap.NewNop(), "workflow-42")
	_, err = c.Get(ctx, "/orders/", nil)
	require.NoError(t, err)
}

// TestObserverNotified tests that the observer sees every attempt.
func TestObserverNotified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	obs := &recordingObserver{}
	c, err := New(config.TargetConfig{BaseURL: server.URL, APIVersion: "api/v1"}, nil,
		WithObserver(obs))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/orders/", nil)
	require.NoError(t, err)

	require.Equal(t, int32(1), obs.calls.Load())
	assert.Equal(t, http.MethodGet, obs.lastMethod)
	assert.Equal(t, http.StatusOK, obs.lastStatus)
}

type recordingObserver struct {
	calls      atomic.Int32
	lastMethod string
	lastStatus int
}

func (o *recordingObserver) Observe(method, path string, status int, duration time.Duration, err error) {
	o.calls.Add(1)
	o.lastMethod = method
	o.lastStatus = status
}

// TestBuildURL tests API version prefixing.
func TestBuildURL(t *testing.T) {
	c, err := New(config.TargetConfig{
		BaseURL:    "http://localhost:8000/",
		APIVersion: "/api/v1/",
	}, nil)
	require.NoError(t, err)

	u, err := c.buildURL("orders/", map[string]string{"page": "2"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api/v1/orders/?page=2", u.String())

	// An already-prefixed path is not prefixed twice.
	u, err = c.buildURL("/api/v1/orders/", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api/v1/orders/", u.String())
}

// TestCalculateBackoff tests that backoff grows and stays within bounds.
func TestCalculateBackoff(t *testing.T) {
	c, err := New(config.TargetConfig{BaseURL: "http://localhost:8000"}, nil,
		WithRetryConfig(RetryConfig{
			MaxRetries: 5,
			RetryDelay: 100 * time.Millisecond,
			MaxDelay:   time.Second,
			Multiplier: 2.0,
		}))
	require.NoError(t, err)

	for attempt := 1; attempt <= 5; attempt++ {
		delay := c.calculateBackoff(attempt)
		assert.Greater(t, delay, time.Duration(0))
		// Jitter is ±25% of a delay capped at MaxDelay.
		assert.LessOrEqual(t, delay, 1250*time.Millisecond)
	}
}
