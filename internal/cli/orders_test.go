package cli

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier/client/internal/catalog"
	"github.com/atelier/client/internal/client"
	"github.com/atelier/client/internal/config"
	"github.com/atelier/client/internal/order"
)

func testFormData() catalog.FormData {
	return catalog.FormData{
		Statuses: []catalog.Option{{ID: 1, Label: "Новый"}},
		Services: []catalog.Service{
			{ID: 3, Name: "Полировка фар", BasePrice: decimal.RequireFromString("1500.00")},
			{ID: 4, Name: "Замена масла", BasePrice: decimal.RequireFromString("3500.00")},
		},
	}
}

// TestAddItemSpec tests parsing of the --item flag value.
func TestAddItemSpec(t *testing.T) {
	data := testFormData()

	t.Run("id only", func(t *testing.T) {
		d := order.NewDraft()
		require.NoError(t, addItemSpec(d, data, "3"))
		require.Len(t, d.Items, 1)
		assert.Equal(t, 3, d.Items[0].ServiceID)
		assert.Equal(t, 1, d.Items[0].Quantity)
	})

	t.Run("id and quantity", func(t *testing.T) {
		d := order.NewDraft()
		require.NoError(t, addItemSpec(d, data, "3:2"))
		assert.Equal(t, 2, d.Items[0].Quantity)
	})

	t.Run("id quantity and comment", func(t *testing.T) {
		d := order.NewDraft()
		require.NoError(t, addItemSpec(d, data, "3:2:обе фары"))
		assert.Equal(t, 2, d.Items[0].Quantity)
		assert.Equal(t, "обе фары", d.Items[0].Comment)
	})

	t.Run("comment may contain colons", func(t *testing.T) {
		d := order.NewDraft()
		require.NoError(t, addItemSpec(d, data, "4:1:note: check level"))
		assert.Equal(t, "note: check level", d.Items[0].Comment)
	})

	t.Run("duplicate service is a no-op", func(t *testing.T) {
		d := order.NewDraft()
		require.NoError(t, addItemSpec(d, data, "3"))
		require.NoError(t, addItemSpec(d, data, "3:5"))
		require.Len(t, d.Items, 1)
		assert.Equal(t, 1, d.Items[0].Quantity)
	})

	t.Run("unknown service", func(t *testing.T) {
		d := order.NewDraft()
		assert.Error(t, addItemSpec(d, data, "99"))
	})

	t.Run("bad service id", func(t *testing.T) {
		d := order.NewDraft()
		assert.Error(t, addItemSpec(d, data, "abc"))
	})

	t.Run("bad quantity", func(t *testing.T) {
		d := order.NewDraft()
		assert.Error(t, addItemSpec(d, data, "3:zero"))
		assert.Error(t, addItemSpec(order.NewDraft(), data, "4:0"))
	})
}

// applyOrderFlags runs orderFlags.apply against d with the given command-line
// arguments, the way the create and edit commands do.
func applyOrderFlags(t *testing.T, args []string, d *order.Draft, data catalog.FormData, vehicles *catalog.VehicleLoader) error {
	t.Helper()
	flags := &orderFlags{}
	cmd := &cobra.Command{
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.apply(cmd, d, data, vehicles)
		},
	}
	flags.register(cmd)
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd.Execute()
}

func testAPIClient(t *testing.T, serverURL string) *client.Client {
	t.Helper()
	c, err := client.New(config.TargetConfig{BaseURL: serverURL, APIVersion: "api/v1"}, nil,
		client.WithRetryConfig(client.RetryConfig{
			ShouldRetry: func(resp *http.Response, err error) bool { return false },
		}))
	require.NoError(t, err)
	return c
}

// TestApplyWithoutCarSkipsVehicleLoad tests that editing unrelated fields
// never touches the cars endpoint, so a broken vehicle list cannot abort the
// edit.
func TestApplyWithoutCarSkipsVehicleLoad(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	vehicles := catalog.NewVehicleLoader(testAPIClient(t, server.URL), nil)

	d := order.NewDraft()
	d.SetClient(5)
	d.VehicleID = 12

	err := applyOrderFlags(t, []string{"--comment", "перенести на четверг"}, d, testFormData(), vehicles)
	require.NoError(t, err)
	assert.Equal(t, "перенести на четверг", d.Comment)
	assert.Equal(t, 12, d.VehicleID)
	assert.Zero(t, requests.Load())
}

// TestApplyCarValidatedAgainstOwner tests ownership validation when --car is
// passed.
func TestApplyCarValidatedAgainstOwner(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/form-data/cars/", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("owner_id"))
		w.Write([]byte(`[{"id": 12, "display_name": "BMW M3"}]`))
	}))
	defer server.Close()

	vehicles := catalog.NewVehicleLoader(testAPIClient(t, server.URL), nil)

	d := order.NewDraft()
	d.SetClient(5)
	require.NoError(t, applyOrderFlags(t, []string{"--car", "12"}, d, testFormData(), vehicles))
	assert.Equal(t, 12, d.VehicleID)

	d2 := order.NewDraft()
	d2.SetClient(5)
	err := applyOrderFlags(t, []string{"--car", "99"}, d2, testFormData(), vehicles)
	require.Error(t, err)
	assert.Zero(t, d2.VehicleID)
}

// TestApplyCarFetchFailure tests that --car cannot be set when the vehicle
// list is unavailable.
func TestApplyCarFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	vehicles := catalog.NewVehicleLoader(testAPIClient(t, server.URL), nil)

	d := order.NewDraft()
	d.SetClient(5)
	err := applyOrderFlags(t, []string{"--car", "12"}, d, testFormData(), vehicles)
	require.Error(t, err)
	assert.Zero(t, d.VehicleID)
}

// TestRootCommandWiring tests that all top-level commands are registered.
func TestRootCommandWiring(t *testing.T) {
	cmd := newRootCmd()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{"login", "register", "logout", "me", "services", "portfolio", "blog", "reviews", "orders"} {
		assert.True(t, names[want], "missing command %q", want)
	}

	for _, flag := range []string{"config", "verbose", "metrics-addr"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing persistent flag %q", flag)
	}
}
