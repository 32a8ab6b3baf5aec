package demo

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdn-metrics-dashboard/models"
	"cdn-metrics-dashboard/system"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(system.DemoConfig{Enabled: true, DBPath: ":memory:", Port: 0})
	require.NoError(t, err)
	return s
}

func get(t *testing.T, s *Server, path string, out interface{}) *http.Response {
	t.Helper()
	resp, err := s.app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	if out != nil {
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, out))
	}
	return resp
}

func lastMonthRef() string {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, -1, 0).Format("01-2006")
}

func TestDemoClientsSeeded(t *testing.T) {
	s := newTestServer(t)

	var clients []models.Client
	get(t, s, "/clientes", &clients)
	require.Len(t, clients, 3)
	assert.Equal(t, "Acme Retail", clients[0].ClientName)
	assert.NotEmpty(t, clients[0].AccountID)
}

func TestDemoInitializing(t *testing.T) {
	s := newTestServer(t)

	var snap models.InitSnapshot
	get(t, s, "/initializing", &snap)
	assert.Len(t, snap.Clients, 3)
	assert.NotEmpty(t, snap.Stats)
}

func TestDemoGraphAttack(t *testing.T) {
	s := newTestServer(t)

	var resp models.AttackResponse
	get(t, s, "/graph-attack/Acme%20Retail?monthRef="+lastMonthRef(), &resp)
	require.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data)
	assert.NotEmpty(t, resp.Top5Countries)
	assert.NotEqual(t, "0", resp.TotalRequests)
}

func TestDemoGraphAttackUnknownMonth(t *testing.T) {
	s := newTestServer(t)

	var resp models.AttackResponse
	get(t, s, "/graph-attack/Acme%20Retail?monthRef=01-1999", &resp)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Message)
}

func TestDemoGraphSecTotalsConsistent(t *testing.T) {
	s := newTestServer(t)

	var resp models.SecurityResponse
	get(t, s, "/graph-sec/Acme%20Retail?monthRef="+lastMonthRef(), &resp)
	require.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data)

	sum := resp.Totals.Attack + resp.Totals.LikelyAttack + resp.Totals.LikelyClean + resp.Totals.Clean
	assert.Equal(t, sum, resp.Summary.TotalRequests)
}

func TestDemoTop5Dimensions(t *testing.T) {
	s := newTestServer(t)

	var resp models.Top5Response
	get(t, s, "/top5-sec/Acme%20Retail?monthRef="+lastMonthRef(), &resp)
	require.True(t, resp.Success)
	assert.Len(t, resp.Data.TopCountries, 5)
	assert.Len(t, resp.Data.TopIPs, 5)
	assert.NotEmpty(t, resp.AccountID)
}

func TestDemoHostsHaveWarningCandidate(t *testing.T) {
	s := newTestServer(t)

	var hosts []models.Host
	get(t, s, "/hosts/Acme%20Retail", &hosts)
	require.Len(t, hosts, 4)
	for _, h := range hosts {
		assert.NotEmpty(t, h.CertExpiry)
	}
}

func TestDemoCertRefresh(t *testing.T) {
	s := newTestServer(t)

	var clients []models.Client
	get(t, s, "/clientes", &clients)
	require.NotEmpty(t, clients)

	var result models.CertRefreshResult
	get(t, s, "/api/certificates/expirations/"+clients[0].AccountID, &result)
	assert.True(t, result.Success)
	assert.Equal(t, int64(4), result.Updated)
}

func TestDemoSeedIsIdempotent(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, Seed(s.db))

	var clients []models.Client
	get(t, s, "/clientes", &clients)
	assert.Len(t, clients, 3)
}
