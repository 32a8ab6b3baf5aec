package models

import (
	"cdn-metrics-dashboard/metrics"
)

// View models: the aggregated, chart-ready payloads served to the
// dashboard. Each corresponds to one scrollable section.

// AttackView backs the attacks-by-country section: a chronological series
// of per-country tallies plus the country ranking.
type AttackView struct {
	Series        []metrics.Row          `json:"series"`
	TopCountries  []metrics.RankingEntry `json:"top_countries"`
	TotalRequests int64                  `json:"total_requests"`
	TotalCompact  string                 `json:"total_compact"`
}

// SecurityView backs the traffic-classification section (attack /
// likely_attack / likely_clean / clean per day).
type SecurityView struct {
	Series        []metrics.Row        `json:"series"`
	Totals        ClassificationTotals `json:"totals"`
	TotalRequests int64                `json:"total_requests"`
	AttackRate    float64              `json:"attack_rate"`
	CleanRate     float64              `json:"clean_rate"`
	Malicious     metrics.SeriesStats  `json:"malicious"`
}

// ActionTotal is one mitigation action's monthly total for the summary
// section's distribution chart. Only actions with traffic are listed.
type ActionTotal struct {
	Metric     string `json:"metric"`
	Total      int64  `json:"total"`
	Percentage string `json:"percentage"`
}

type SummaryView struct {
	Series        []metrics.Row `json:"series"`
	Actions       []ActionTotal `json:"actions"`
	TotalRequests int64         `json:"total_requests"`
	TotalCompact  string        `json:"total_compact"`
}

// DimensionRanking is one top-N card: a dimension key, its display title
// and the ranked entries. Top5Share is the summed percentage of the shown
// entries; it is informational and deliberately not expected to be 100%.
type DimensionRanking struct {
	Key       string                 `json:"key"`
	Title     string                 `json:"title"`
	Entries   []metrics.RankingEntry `json:"entries"`
	Top5Share string                 `json:"top5_share"`
}

type Top5View struct {
	Dimensions    []DimensionRanking `json:"dimensions"`
	TotalRequests int64              `json:"total_requests"`
	TotalCompact  string             `json:"total_compact"`
	Period        string             `json:"period"`
}

// MonthShare is one month's cache/origin split for the bandwidth section.
type MonthShare struct {
	Name   string  `json:"name"`
	Cache  float64 `json:"cache"`
	Origin float64 `json:"origin"`
}

type BandwidthView struct {
	CacheOrigin  []MonthShare  `json:"cache_origin"`
	Distribution []metrics.Row `json:"distribution"`
}

// DataSecCards are the headline numbers above the traffic-vs-security
// chart.
type DataSecCards struct {
	TotalRequests     int64   `json:"total_requests"`
	ValidRequests     int64   `json:"valid_requests"`
	TotalMitigated    int64   `json:"total_mitigated"`
	BlockedPercentage float64 `json:"blocked_percentage"`
	TotalBlock        int64   `json:"total_block"`
	TotalManaged      int64   `json:"total_managed"`
	TotalInteractive  int64   `json:"total_interactive"`
}

type DataSecView struct {
	Series []metrics.Row `json:"series"`
	Cards  DataSecCards  `json:"cards"`
}

// StatCard is one formatted summary card (label + already-formatted
// value) for the traffic overview.
type StatCard struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// HostRow is one zone row of the hosts table with the rendered expiry
// date and a flag for certificates expiring within the warning window.
type HostRow struct {
	Host
	ExpiryDisplay string `json:"expiry_display"`
	ExpiringSoon  bool   `json:"expiring_soon"`
}

type TrafficView struct {
	Cards []StatCard   `json:"cards"`
	Hosts []HostRow    `json:"hosts"`
	Stats MonthlyStats `json:"stats"`
}

// MonthMetrics is one month of the request-metrics history, scaled to
// millions the way the composed chart plots it.
type MonthMetrics struct {
	Month           string  `json:"month"`
	TotalM          float64 `json:"total"`
	ValidM          float64 `json:"valid"`
	MitigatedM      float64 `json:"mitigated"`
	BlockPercentage float64 `json:"block_percentage"`
}

type RequestMetricsView struct {
	Months []MonthMetrics `json:"months"`
}

// IngestLine is one month of provider log ingestion, with the line count
// already grouped for display.
type IngestLine struct {
	Month string `json:"month"`
	Lines string `json:"lines"`
}

// SampleSpan is the time range the backend's security sampling covers.
type SampleSpan struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// SyncLogView is the ingestion bookkeeping the landing page prints as
// sync logs: per-month line counts, collection runs and the sampled
// window.
type SyncLogView struct {
	Ingestion   []IngestLine `json:"ingestion"`
	Collections []string     `json:"collections"`
	Window      *SampleSpan  `json:"window,omitempty"`
}
