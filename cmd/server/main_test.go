package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bbernstein/laundrylocator/backend-go/internal/app"
	"github.com/bbernstein/laundrylocator/backend-go/internal/config"
	"github.com/bbernstein/laundrylocator/backend-go/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	telemetry.InitMetrics()

	cfg := config.New(config.WithPaymentPublicKey("pk_test"))
	a, err := app.New(context.Background(), cfg, &config.CacheConfig{
		ListingLRUSize:       10,
		ListingLRUTTLMinutes: 1,
		GeocodeLRUSize:       10,
		GeocodeLRUTTLMinutes: 1,
		EnableLRUCache:       true,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(newServer(":0", a).Handler)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_Metrics(t *testing.T) {
	srv := newTestServer(t)

	status, _ := get(t, srv.URL+"/subscribe/plans")
	assert.Equal(t, http.StatusOK, status)

	status, body := get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "laundrylocator_page_responses_total")
}

func TestServer_Routes(t *testing.T) {
	srv := newTestServer(t)

	status, body := get(t, srv.URL+"/subscribe/plans")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "premium_annual")

	status, _ = get(t, srv.URL+"/states/XX")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = get(t, srv.URL+"/stations")
	assert.Equal(t, http.StatusNotFound, status)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/subscribe", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
