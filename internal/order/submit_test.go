package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier/client/internal/client"
	"github.com/atelier/client/internal/config"
)

func testClient(t *testing.T, serverURL string) *client.Client {
	t.Helper()
	c, err := client.New(config.TargetConfig{BaseURL: serverURL, APIVersion: "api/v1"}, nil)
	require.NoError(t, err)
	return c
}

func validDraft(t *testing.T) *Draft {
	t.Helper()
	d := NewDraft()
	d.SetClient(5)
	d.VehicleID = 12
	d.StatusID = 1
	require.True(t, d.AddLineItem(3, testServices()))
	return d
}

// TestSubmitterCreate tests the create request path and body.
func TestSubmitterCreate(t *testing.T) {
	var body Payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/orders/create/", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	d := validDraft(t)
	err := NewSubmitter(testClient(t, server.URL), nil).Create(context.Background(), d)
	require.NoError(t, err)

	assert.Equal(t, 5, body.Client)
	assert.Equal(t, 12, body.Car)
	assert.Equal(t, "NRM", body.Urgency)
	require.Len(t, body.OrderItems, 1)
	assert.Equal(t, 3, body.OrderItems[0].ServiceID)
}

// TestSubmitterUpdate tests the update request path.
func TestSubmitterUpdate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/orders/41/", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := NewSubmitter(testClient(t, server.URL), nil).Update(context.Background(), 41, validDraft(t))
	require.NoError(t, err)
}

// TestSubmitterValidatesBeforeSending tests that an incomplete draft never
// reaches the server.
func TestSubmitterValidatesBeforeSending(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	d := NewDraft() // no client, car or status
	err := NewSubmitter(testClient(t, server.URL), nil).Create(context.Background(), d)

	require.Error(t, err)
	assert.Zero(t, requests.Load())
}

// TestSubmitterRejectsConcurrentSubmit tests the double-submit guard.
func TestSubmitterRejectsConcurrentSubmit(t *testing.T) {
	var enteredOnce sync.Once
	entered := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enteredOnce.Do(func() { close(entered) })
		<-release
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	s := NewSubmitter(testClient(t, server.URL), nil)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- s.Create(context.Background(), validDraft(t))
	}()

	<-entered
	err := s.Create(context.Background(), validDraft(t))
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(release)
	require.NoError(t, <-firstDone)

	// The guard is released once the first submission finishes.
	require.NoError(t, s.Create(context.Background(), validDraft(t)))
}

// TestSubmitterFailureKeepsDraft tests that a rejected submission leaves the
// draft intact for correction and resubmit.
func TestSubmitterFailureKeepsDraft(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"planned_completion_date": ["Date cannot be in the past."]}`))
	}))
	defer server.Close()

	d := validDraft(t)
	d.PlannedDate = "2020-01-01"

	s := NewSubmitter(testClient(t, server.URL), nil)
	err := s.Create(context.Background(), d)

	require.Error(t, err)
	assert.True(t, client.IsValidation(err))
	assert.Equal(t, "2020-01-01", d.PlannedDate)
	assert.Len(t, d.Items, 1)

	// Resubmit after correcting works with the same submitter.
	server.Close()
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer ok.Close()

	d.PlannedDate = "2026-12-01"
	require.NoError(t, NewSubmitter(testClient(t, ok.URL), nil).Create(context.Background(), d))
}
