package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdn-metrics-dashboard/system"
)

func newTestClient(baseURL string, retries uint) *UpstreamClient {
	return NewUpstreamClient(system.UpstreamConfig{
		BaseURL: baseURL,
		Timeout: 2 * time.Second,
		Retries: retries,
	})
}

func TestUpstreamGraphAttackDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/graph-attack/Acme%20Retail", r.URL.EscapedPath())
		assert.Equal(t, "07-2026", r.URL.Query().Get("monthRef"))
		w.Write([]byte(`{
			"success": true,
			"data": [{"ts":"01-07","country":"BR","eventCount":"120","accountId":"acc-1"}],
			"top5Countries": [{"country":"BR","total":"120","percentage":"100.00"}],
			"totalRequests": "4000"
		}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL, 0).GraphAttack(context.Background(), "Acme Retail", "07-2026")
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "BR", resp.Data[0].Country)
	assert.Equal(t, "120", resp.Data[0].EventCount)
	assert.Equal(t, "4000", resp.TotalRequests)
}

func TestUpstreamRejectionIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"success": false, "message": "No data for the selected period"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3).GraphSec(context.Background(), "Acme Retail", "07-2026")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamRejected)
	assert.Contains(t, err.Error(), "No data for the selected period")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestUpstreamRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"account_id":"acc-1","client_name":"Acme Retail"}]`))
	}))
	defer srv.Close()

	clients, err := newTestClient(srv.URL, 2).Clients(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestUpstreamClientErrorFailsFast(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3).Hosts(context.Background(), "Nobody")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestUpstreamBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	u := newTestClient(srv.URL, 0)
	for i := 0; i < 7; i++ {
		_, _ = u.Clients(context.Background())
	}
	assert.Equal(t, "open", u.BreakerState())
}
