package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"cdn-metrics-dashboard/models"
	"cdn-metrics-dashboard/system"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
)

// ErrUpstreamRejected marks an application-level failure: the backend
// answered HTTP 200 but its own success flag is false. These are not
// retried; the backend already made up its mind.
var ErrUpstreamRejected = errors.New("upstream rejected request")

// UpstreamClient is the single boundary to the provider statistics API.
// The base URL is injected at construction so adapters stay testable
// against httptest servers; there is no ambient global endpoint.
type UpstreamClient struct {
	baseURL string
	http    *http.Client
	retries uint
	breaker *gobreaker.CircuitBreaker
}

func NewUpstreamClient(cfg system.UpstreamConfig) *UpstreamClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "stats-upstream",
		Interval: 30 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			system.Warn("Upstream breaker %s: %s -> %s", name, from, to)
		},
	})

	return &UpstreamClient{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		retries: cfg.Retries,
		breaker: breaker,
	}
}

// BaseURL returns the configured upstream endpoint.
func (u *UpstreamClient) BaseURL() string {
	return u.baseURL
}

// BreakerState reports the circuit breaker state for the status endpoint.
func (u *UpstreamClient) BreakerState() string {
	return u.breaker.State().String()
}

// getJSON performs one GET with retries behind the circuit breaker and
// decodes the body into out. Only transport-level failures (network
// errors, 5xx) are retried.
func (u *UpstreamClient) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	target := u.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	_, err := u.breaker.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(u.retries+1),
			retry.LastErrorOnly(true),
		)
		return nil, r.Do(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := u.http.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 500 {
				return fmt.Errorf("upstream %s: status %d", path, resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(fmt.Errorf("upstream %s: status %d", path, resp.StatusCode))
			}

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(body, out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("upstream %s: decode: %w", path, err))
			}
			return nil
		})
	})
	return err
}

func monthRefQuery(monthRef string) url.Values {
	q := url.Values{}
	q.Set("monthRef", monthRef)
	return q
}

// Initializing returns the bootstrap snapshot: client directory plus
// ingestion bookkeeping.
func (u *UpstreamClient) Initializing(ctx context.Context) (*models.InitSnapshot, error) {
	var snap models.InitSnapshot
	if err := u.getJSON(ctx, "/initializing", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Clients returns the raw client listing.
func (u *UpstreamClient) Clients(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	if err := u.getJSON(ctx, "/clientes", nil, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// Hosts returns the zone/host performance table for a client.
func (u *UpstreamClient) Hosts(ctx context.Context, clientName string) ([]models.Host, error) {
	var hosts []models.Host
	if err := u.getJSON(ctx, "/hosts/"+url.PathEscape(clientName), nil, &hosts); err != nil {
		return nil, err
	}
	return hosts, nil
}

// Stats returns the monthly stats history for an account.
func (u *UpstreamClient) Stats(ctx context.Context, accountID string) ([]models.MonthlyStats, error) {
	var stats []models.MonthlyStats
	if err := u.getJSON(ctx, "/stats/"+url.PathEscape(accountID), nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// SecurityAnalysis returns the per-month request/mitigation history.
func (u *UpstreamClient) SecurityAnalysis(ctx context.Context, clientName string) ([]models.SecurityAnalysis, error) {
	var rows []models.SecurityAnalysis
	if err := u.getJSON(ctx, "/security_analysis/"+url.PathEscape(clientName), nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GraphAttack returns the attacks-by-country series for one month.
func (u *UpstreamClient) GraphAttack(ctx context.Context, clientName, monthRef string) (*models.AttackResponse, error) {
	var resp models.AttackResponse
	if err := u.getJSON(ctx, "/graph-attack/"+url.PathEscape(clientName), monthRefQuery(monthRef), &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, rejected(resp.Message)
	}
	return &resp, nil
}

// GraphSec returns the per-day traffic classification for one month.
func (u *UpstreamClient) GraphSec(ctx context.Context, clientName, monthRef string) (*models.SecurityResponse, error) {
	var resp models.SecurityResponse
	if err := u.getJSON(ctx, "/graph-sec/"+url.PathEscape(clientName), monthRefQuery(monthRef), &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, rejected(resp.Message)
	}
	return &resp, nil
}

// GraphSummary returns the mitigation-action series for one month.
func (u *UpstreamClient) GraphSummary(ctx context.Context, clientName, monthRef string) (*models.SummaryResponse, error) {
	var resp models.SummaryResponse
	if err := u.getJSON(ctx, "/graph-summary/"+url.PathEscape(clientName), monthRefQuery(monthRef), &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, rejected(resp.Message)
	}
	return &resp, nil
}

// GraphData returns the cache/origin delivery series for one month.
func (u *UpstreamClient) GraphData(ctx context.Context, clientName, monthRef string) (*models.BandwidthResponse, error) {
	var resp models.BandwidthResponse
	if err := u.getJSON(ctx, "/graph-data/"+url.PathEscape(clientName), monthRefQuery(monthRef), &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, rejected(resp.Message)
	}
	return &resp, nil
}

// GraphDataSec returns the traffic-vs-security series for one month.
func (u *UpstreamClient) GraphDataSec(ctx context.Context, clientName, monthRef string) (*models.DataSecResponse, error) {
	var resp models.DataSecResponse
	if err := u.getJSON(ctx, "/graph-datasec/"+url.PathEscape(clientName), monthRefQuery(monthRef), &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, rejected(resp.Message)
	}
	return &resp, nil
}

// Top5Sec returns the per-dimension top-N breakdowns for one month.
func (u *UpstreamClient) Top5Sec(ctx context.Context, clientName, monthRef string) (*models.Top5Response, error) {
	var resp models.Top5Response
	if err := u.getJSON(ctx, "/top5-sec/"+url.PathEscape(clientName), monthRefQuery(monthRef), &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, rejected(resp.Message)
	}
	return &resp, nil
}

// RefreshCertExpirations asks the backend to re-pull certificate
// expiration dates for an account.
func (u *UpstreamClient) RefreshCertExpirations(ctx context.Context, accountID string) (*models.CertRefreshResult, error) {
	var result models.CertRefreshResult
	if err := u.getJSON(ctx, "/api/certificates/expirations/"+url.PathEscape(accountID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func rejected(message string) error {
	if message == "" {
		message = "no data for the selected period"
	}
	return fmt.Errorf("%w: %s", ErrUpstreamRejected, message)
}
