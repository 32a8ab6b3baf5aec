package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdn-metrics-dashboard/models"
)

// statsStub serves canned JSON per path prefix.
func statsStub(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for prefix, body := range responses {
			if len(r.URL.Path) >= len(prefix) && r.URL.Path[:len(prefix)] == prefix {
				w.Write([]byte(body))
				return
			}
		}
		t.Errorf("unexpected request: %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}))
}

var testSel = Selection{ClientName: "Acme Retail", AccountID: "acc-1", MonthRef: "07-2026"}

func TestAttackViewAggregatesAndOrders(t *testing.T) {
	// Days arrive out of order and countries repeat per day; the view
	// must come back day-sorted with per-day sums.
	srv := statsStub(t, map[string]string{
		"/graph-attack/": `{
			"success": true,
			"data": [
				{"ts":"03-07","country":"BR","eventCount":"5"},
				{"ts":"01-07","country":"BR","eventCount":"3"},
				{"ts":"01-07","country":"US","eventCount":"2"},
				{"ts":"01-07","country":"BR","eventCount":"4"}
			],
			"top5Countries": [
				{"country":"BR","total":"12","percentage":"85.71"},
				{"country":"US","total":"2","percentage":"14.29"}
			],
			"totalRequests": "14"
		}`,
	})
	defer srv.Close()

	v := NewViewBuilder(newTestClient(srv.URL, 0), nil, nil, 5)
	out, err := v.Attack(context.Background(), testSel)
	require.NoError(t, err)

	view := out.(*models.AttackView)
	require.Len(t, view.Series, 2)
	assert.Equal(t, "01-07", view.Series[0].Date)
	assert.Equal(t, int64(7), view.Series[0].Values["BR"])
	assert.Equal(t, int64(2), view.Series[0].Values["US"])
	assert.Equal(t, "03-07", view.Series[1].Date)
	assert.Equal(t, int64(14), view.TotalRequests)
	require.Len(t, view.TopCountries, 2)
	assert.Equal(t, "BR", view.TopCountries[0].Category)
	assert.Equal(t, "85.71", view.TopCountries[0].Percentage)
}

func TestAttackViewDerivesRankingWhenAbsent(t *testing.T) {
	srv := statsStub(t, map[string]string{
		"/graph-attack/": `{
			"success": true,
			"data": [
				{"ts":"01-07","country":"BR","eventCount":"75"},
				{"ts":"01-07","country":"US","eventCount":"25"}
			],
			"totalRequests": "100"
		}`,
	})
	defer srv.Close()

	v := NewViewBuilder(newTestClient(srv.URL, 0), nil, nil, 5)
	out, err := v.Attack(context.Background(), testSel)
	require.NoError(t, err)

	view := out.(*models.AttackView)
	require.Len(t, view.TopCountries, 2)
	assert.Equal(t, "BR", view.TopCountries[0].Category)
	assert.Equal(t, "75.00", view.TopCountries[0].Percentage)
}

func TestSecurityViewRates(t *testing.T) {
	srv := statsStub(t, map[string]string{
		"/graph-sec/": `{
			"success": true,
			"data": {
				"02-07": {"attack":{"count":10},"likely_attack":{"count":10},"likely_clean":{"count":30},"clean":{"count":50}},
				"01-07": {"attack":{"count":20},"likely_attack":{"count":0},"likely_clean":{"count":30},"clean":{"count":50}}
			},
			"totals": {"attack":30,"likely_attack":10,"likely_clean":60,"clean":100},
			"summary": {"totalRequests":200}
		}`,
	})
	defer srv.Close()

	v := NewViewBuilder(newTestClient(srv.URL, 0), nil, nil, 5)
	out, err := v.Security(context.Background(), testSel)
	require.NoError(t, err)

	view := out.(*models.SecurityView)
	require.Len(t, view.Series, 2)
	assert.Equal(t, "01-07", view.Series[0].Date)
	assert.InDelta(t, 20.0, view.AttackRate, 0.001)
	assert.InDelta(t, 80.0, view.CleanRate, 0.001)
	assert.Equal(t, int64(40), view.Malicious.Total)
}

func TestSummaryViewRanksActiveActions(t *testing.T) {
	srv := statsStub(t, map[string]string{
		"/graph-summary/": `{
			"success": true,
			"data": [
				{"ts":"01-07","metric":"block","count":100},
				{"ts":"01-07","metric":"log","count":50}
			],
			"totalBlock": 100,
			"totalLog": 50,
			"totalSkip": 0,
			"totalRequests": 200
		}`,
	})
	defer srv.Close()

	v := NewViewBuilder(newTestClient(srv.URL, 0), nil, nil, 5)
	out, err := v.Summary(context.Background(), testSel)
	require.NoError(t, err)

	view := out.(*models.SummaryView)
	// Zero-total actions are dropped, the rest sorted descending.
	require.Len(t, view.Actions, 2)
	assert.Equal(t, "block", view.Actions[0].Metric)
	assert.Equal(t, "50.0", view.Actions[0].Percentage)
	assert.Equal(t, "log", view.Actions[1].Metric)
}

func TestTop5ViewSkipsAbsentDimensions(t *testing.T) {
	srv := statsStub(t, map[string]string{
		"/top5-sec/": `{
			"success": true,
			"data": {
				"topCountries": [
					{"value":"BR","count":60,"percentage":"60.00"},
					{"value":"US","count":40,"percentage":"40.00"}
				]
			},
			"totalRequests": 100,
			"period": "07-2026"
		}`,
	})
	defer srv.Close()

	v := NewViewBuilder(newTestClient(srv.URL, 0), nil, nil, 5)
	out, err := v.Top5(context.Background(), testSel)
	require.NoError(t, err)

	view := out.(*models.Top5View)
	require.Len(t, view.Dimensions, 1)
	assert.Equal(t, "countries", view.Dimensions[0].Key)
	assert.Equal(t, "100.0", view.Dimensions[0].Top5Share)
}

func TestDataSecViewCards(t *testing.T) {
	srv := statsStub(t, map[string]string{
		"/graph-datasec/": `{
			"success": true,
			"data": [{"ts":"01-07","eventType":"mitigated","eventCount":100}],
			"requests_total": 1000,
			"valid_requests": 700,
			"blockedPercentage": 30,
			"mitigated_requests": 100,
			"totalManaged": 150,
			"totalChallange": 50
		}`,
	})
	defer srv.Close()

	v := NewViewBuilder(newTestClient(srv.URL, 0), nil, nil, 5)
	out, err := v.DataSec(context.Background(), testSel)
	require.NoError(t, err)

	view := out.(*models.DataSecView)
	assert.Equal(t, int64(300), view.Cards.TotalMitigated)
	assert.Equal(t, int64(50), view.Cards.TotalInteractive)
}

func TestTrafficViewFlagsExpiringCertificates(t *testing.T) {
	soon := time.Now().AddDate(0, 0, 10).Format("2006-01-02 15:04:05")
	far := time.Now().AddDate(0, 0, 200).Format("2006-01-02 15:04:05")
	srv := statsStub(t, map[string]string{
		"/hosts/": `[
			{"name":"www.acme.example.com","total_requests":1000,"vencimento":"` + soon + `"},
			{"name":"api.acme.example.com","total_requests":500,"vencimento":"` + far + `"},
			{"name":"cdn.acme.example.com","total_requests":100,"vencimento":""}
		]`,
		"/stats/": `[
			{"id":1,"month_year":"2026-07-01","total_requests":2500000,"bandwidth_used":2e12,"unique_visits":100000,"page_views":900000,"cache_percentage":80,"origin_percentage":20}
		]`,
	})
	defer srv.Close()

	v := NewViewBuilder(newTestClient(srv.URL, 0), nil, nil, 5)
	out, err := v.Traffic(context.Background(), testSel)
	require.NoError(t, err)

	view := out.(*models.TrafficView)
	require.Len(t, view.Hosts, 3)
	assert.True(t, view.Hosts[0].ExpiringSoon)
	assert.False(t, view.Hosts[1].ExpiringSoon)
	assert.Equal(t, "n/a", view.Hosts[2].ExpiryDisplay)

	require.Len(t, view.Cards, 4)
	assert.Equal(t, "2.5M", view.Cards[0].Value)
	assert.Equal(t, "2.0 TB", view.Cards[1].Value)
}

func TestTrafficViewAlertsExpiringCertsOnce(t *testing.T) {
	soon := time.Now().AddDate(0, 0, 10).Format("2006-01-02 15:04:05")
	srv := statsStub(t, map[string]string{
		"/hosts/": `[{"name":"www.acme.example.com","total_requests":1000,"vencimento":"` + soon + `"}]`,
		"/stats/": `[]`,
	})
	defer srv.Close()

	var hookCalls int32
	var lastBody []byte
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hookCalls, 1)
		lastBody, _ = io.ReadAll(r.Body)
	}))
	defer hook.Close()

	v := NewViewBuilder(newTestClient(srv.URL, 0), nil, NewWebhookService(hook.URL), 5)

	_, err := v.Traffic(context.Background(), testSel)
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&hookCalls))
	assert.Contains(t, string(lastBody), "www.acme.example.com")
	assert.Contains(t, string(lastBody), "Acme Retail")

	// A refetch for the same client must not alert again.
	_, err = v.Traffic(context.Background(), testSel)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hookCalls))
}

func TestRequestMetricsViewScalesAndSorts(t *testing.T) {
	srv := statsStub(t, map[string]string{
		"/security_analysis/": `[
			{"created_at":"2026-07-01 00:00:00","requests_total":4000000,"valid_requests":3800000,"total_mitigated":200000,"blocked_requests":"5.00"},
			{"created_at":"2026-06-01 00:00:00","requests_total":2000000,"valid_requests":1900000,"total_mitigated":100000,"blocked_requests":"5.00"}
		]`,
	})
	defer srv.Close()

	v := NewViewBuilder(newTestClient(srv.URL, 0), nil, nil, 5)
	out, err := v.RequestMetrics(context.Background(), testSel)
	require.NoError(t, err)

	view := out.(*models.RequestMetricsView)
	require.Len(t, view.Months, 2)
	assert.Equal(t, "Jun 26", view.Months[0].Month)
	assert.InDelta(t, 2.0, view.Months[0].TotalM, 0.001)
	assert.Equal(t, "Jul 26", view.Months[1].Month)
	assert.InDelta(t, 4.0, view.Months[1].TotalM, 0.001)
}
