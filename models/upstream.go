package models

// Wire types for the provider statistics API. Field names and tags follow
// the backend's JSON exactly, including its mixed casing and string-typed
// counters; normalization happens in the aggregation pipeline, not here.

type Client struct {
	AccountID  string `json:"account_id"`
	ClientName string `json:"client_name"`
	CreatedAt  string `json:"created_at"`
}

type Host struct {
	Name                   string   `json:"name"`
	TotalRequests          int64    `json:"total_requests"`
	CacheHit               int64    `json:"cache_hit"`
	OriginFetch            int64    `json:"origin_fetch"`
	AccelerationPercentage *float64 `json:"acceleration_percentage"`
	LatencyImprovement     *float64 `json:"latency_improvement"`
	CertExpiry             string   `json:"vencimento"`
}

type MonthlyStats struct {
	ID               int64   `json:"id"`
	MonthYear        string  `json:"month_year"`
	TotalRequests    int64   `json:"total_requests"`
	BandwidthUsed    float64 `json:"bandwidth_used"`
	UniqueVisits     int64   `json:"unique_visits"`
	PageViews        int64   `json:"page_views"`
	CachePercentage  float64 `json:"cache_percentage"`
	OriginPercentage float64 `json:"origin_percentage"`
}

type SecurityAnalysis struct {
	CreatedAt       string `json:"created_at"`
	RequestsTotal   int64  `json:"requests_total"`
	ValidRequests   int64  `json:"valid_requests"`
	TotalMitigated  int64  `json:"total_mitigated"`
	BlockedRequests string `json:"blocked_requests"`
}

// InitSnapshot is the bootstrap payload: client directory plus ingestion
// bookkeeping the landing page prints as sync logs.
type InitSnapshot struct {
	Clients           []Client         `json:"clients"`
	Stats             []IngestStat     `json:"stats"`
	Performance       []CollectionMark `json:"performance"`
	SecurityAnalytics []SampleWindow   `json:"securityAnalytics"`
}

type IngestStat struct {
	MonthYear string `json:"month_year"`
	LineCount int64  `json:"line_count"`
}

type CollectionMark struct {
	CreatedAt string `json:"created_at"`
}

type SampleWindow struct {
	MinTS string `json:"min_ts"`
	MaxTS string `json:"max_ts"`
}

// AttackEvent is one day/country tally of mitigated attack traffic.
// EventCount is a string on the wire.
type AttackEvent struct {
	TS         string `json:"ts"`
	Country    string `json:"country"`
	EventCount string `json:"eventCount"`
	AccountID  string `json:"accountId"`
}

type CountryStat struct {
	Country    string `json:"country"`
	Total      string `json:"total"`
	Percentage string `json:"percentage"`
}

type AttackResponse struct {
	Success       bool          `json:"success"`
	Message       string        `json:"message"`
	Data          []AttackEvent `json:"data"`
	Top5Countries []CountryStat `json:"top5Countries"`
	TotalRequests string        `json:"totalRequests"`
}

// ClassifiedDay buckets one day's requests by traffic classification.
type ClassifiedDay struct {
	Attack       Tally `json:"attack"`
	LikelyAttack Tally `json:"likely_attack"`
	LikelyClean  Tally `json:"likely_clean"`
	Clean        Tally `json:"clean"`
}

type Tally struct {
	Count int64 `json:"count"`
}

type ClassificationTotals struct {
	Attack       int64 `json:"attack"`
	LikelyAttack int64 `json:"likely_attack"`
	LikelyClean  int64 `json:"likely_clean"`
	Clean        int64 `json:"clean"`
}

type SecurityResponse struct {
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Data    map[string]ClassifiedDay `json:"data"`
	Totals  ClassificationTotals     `json:"totals"`
	Summary struct {
		TotalRequests int64 `json:"totalRequests"`
	} `json:"summary"`
}

// MetricEvent is one day/mitigation-action tally (block, challenge, ...).
type MetricEvent struct {
	TS     string `json:"ts"`
	Metric string `json:"metric"`
	Count  int64  `json:"count"`
}

type SummaryResponse struct {
	Success          bool          `json:"success"`
	Message          string        `json:"message"`
	Data             []MetricEvent `json:"data"`
	TotalBlock       int64         `json:"totalBlock"`
	TotalManaged     int64         `json:"totalManaged"`
	TotalJSChallenge int64         `json:"totalJSChallenge"`
	TotalLog         int64         `json:"totalLog"`
	TotalSkip        int64         `json:"totalSkip"`
	TotalAllow       int64         `json:"totalAllow"`
	TotalRewrite     int64         `json:"totalRewrite"`
	TotalChallenge   int64         `json:"totalChallenge"`
	TotalRequests    int64         `json:"totalRequests"`
}

// TypedEvent is one day/delivery-type tally (servedByCloudflare vs
// servedByOrigin) from the bandwidth endpoint.
type TypedEvent struct {
	TS    string `json:"ts"`
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

type BandwidthResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    []TypedEvent `json:"data"`
}

// SecEvent is one day/event-type tally from the traffic-vs-security
// endpoint. Note the upstream's "totalChallange" spelling is part of the
// wire contract.
type SecEvent struct {
	TS         string `json:"ts"`
	EventType  string `json:"eventType"`
	EventCount int64  `json:"eventCount"`
}

type DataSecResponse struct {
	Success           bool       `json:"success"`
	Message           string     `json:"message"`
	Data              []SecEvent `json:"data"`
	RequestsTotal     int64      `json:"requests_total"`
	ValidRequests     int64      `json:"valid_requests"`
	BlockedPercentage float64    `json:"blockedPercentage"`
	MitigatedRequests int64      `json:"mitigated_requests"`
	TotalManaged      int64      `json:"totalManaged"`
	TotalChallenge    int64      `json:"totalChallange"`
}

// Top5Item is one ranking line of a top-N breakdown. Count is numeric on
// this endpoint; percentage stays a preformatted string.
type Top5Item struct {
	Value             string  `json:"value"`
	Count             int64   `json:"count"`
	Percentage        string  `json:"percentage"`
	AvgSampleInterval float64 `json:"avg_sample_interval"`
}

// Top5Breakdowns carries the independent per-dimension rankings. Absent
// dimensions are nil; each present dimension is already limited to five
// entries by the backend.
type Top5Breakdowns struct {
	TopCountries      []Top5Item `json:"topCountries,omitempty"`
	TopASNs           []Top5Item `json:"topASNs,omitempty"`
	TopUserAgents     []Top5Item `json:"topUserAgents,omitempty"`
	TopReferers       []Top5Item `json:"topReferers,omitempty"`
	TopURIPaths       []Top5Item `json:"topUriPaths,omitempty"`
	TopHosts          []Top5Item `json:"topHosts,omitempty"`
	TopManagedRules   []Top5Item `json:"topManagedRules,omitempty"`
	TopIPs            []Top5Item `json:"topIPs,omitempty"`
	TopHTTPMethods    []Top5Item `json:"topHttpMethods,omitempty"`
	TopFirewallRules  []Top5Item `json:"topFirewallRules,omitempty"`
	TopZones          []Top5Item `json:"topZones,omitempty"`
	TopRateLimitRules []Top5Item `json:"topRateLimitRules,omitempty"`
}

type Top5Response struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	Data          Top5Breakdowns `json:"data"`
	TotalRequests int64          `json:"totalRequests"`
	Period        string         `json:"period"`
	AccountID     string         `json:"accountId"`
}

// CertRefreshResult acknowledges a certificate-expiration refresh trigger.
type CertRefreshResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Updated int64  `json:"updated"`
}
