package services

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"cdn-metrics-dashboard/metrics"
	"cdn-metrics-dashboard/models"
	"cdn-metrics-dashboard/system"
)

// certWarningWindow flags certificates expiring within this many days on
// the hosts table.
const certWarningWindow = 45 * 24 * time.Hour

// ViewBuilder turns raw upstream payloads into the chart-ready view
// models. Every builder runs the same path: fetch, normalize to event
// records, aggregate by day, rank and format.
type ViewBuilder struct {
	upstream *UpstreamClient
	geo      *GeoResolver
	webhook  *WebhookService
	topN     int

	mu          sync.Mutex
	certAlerted map[string]bool
}

func NewViewBuilder(upstream *UpstreamClient, geo *GeoResolver, webhook *WebhookService, topN int) *ViewBuilder {
	if topN <= 0 {
		topN = 5
	}
	return &ViewBuilder{
		upstream:    upstream,
		geo:         geo,
		webhook:     webhook,
		topN:        topN,
		certAlerted: make(map[string]bool),
	}
}

// Attack builds the attacks-by-country section.
func (v *ViewBuilder) Attack(ctx context.Context, sel Selection) (interface{}, error) {
	resp, err := v.upstream.GraphAttack(ctx, sel.ClientName, sel.MonthRef)
	if err != nil {
		return nil, err
	}

	records := make([]metrics.EventRecord, len(resp.Data))
	for i, e := range resp.Data {
		records[i] = metrics.EventRecord{Timestamp: e.TS, Category: e.Country, Count: e.EventCount}
	}
	series := metrics.AggregateByTimestamp(records, sel.Year())
	total := metrics.ParseCount(resp.TotalRequests)

	top := make([]metrics.RankingEntry, 0, len(resp.Top5Countries))
	for _, c := range resp.Top5Countries {
		top = append(top, metrics.RankingEntry{
			Category:   c.Country,
			Count:      metrics.ParseCount(c.Total),
			Percentage: c.Percentage,
		})
	}
	// Older backend versions omit the precomputed ranking; derive it
	// from the series so the card never comes up empty.
	if len(top) == 0 {
		top = metrics.RankTopN(metrics.TotalsByCategory(records), v.topN, total, 2)
	}

	return &models.AttackView{
		Series:        series,
		TopCountries:  top,
		TotalRequests: total,
		TotalCompact:  metrics.FormatCompact(total),
	}, nil
}

// Security builds the traffic-classification section.
func (v *ViewBuilder) Security(ctx context.Context, sel Selection) (interface{}, error) {
	resp, err := v.upstream.GraphSec(ctx, sel.ClientName, sel.MonthRef)
	if err != nil {
		return nil, err
	}

	records := make([]metrics.EventRecord, 0, len(resp.Data)*4)
	for date, day := range resp.Data {
		records = append(records,
			metrics.EventRecord{Timestamp: date, Category: "attack", Count: strconv.FormatInt(day.Attack.Count, 10)},
			metrics.EventRecord{Timestamp: date, Category: "likely_attack", Count: strconv.FormatInt(day.LikelyAttack.Count, 10)},
			metrics.EventRecord{Timestamp: date, Category: "likely_clean", Count: strconv.FormatInt(day.LikelyClean.Count, 10)},
			metrics.EventRecord{Timestamp: date, Category: "clean", Count: strconv.FormatInt(day.Clean.Count, 10)},
		)
	}
	series := metrics.AggregateByTimestamp(records, sel.Year())

	totals := resp.Totals
	totalReq := resp.Summary.TotalRequests
	return &models.SecurityView{
		Series:        series,
		Totals:        totals,
		TotalRequests: totalReq,
		AttackRate:    metrics.DeriveRate(float64(totals.Attack+totals.LikelyAttack), float64(totalReq)),
		CleanRate:     metrics.DeriveRate(float64(totals.Clean+totals.LikelyClean), float64(totalReq)),
		Malicious:     metrics.StatsFor(series, "attack", "likely_attack"),
	}, nil
}

// Summary builds the mitigation-actions section.
func (v *ViewBuilder) Summary(ctx context.Context, sel Selection) (interface{}, error) {
	resp, err := v.upstream.GraphSummary(ctx, sel.ClientName, sel.MonthRef)
	if err != nil {
		return nil, err
	}

	records := make([]metrics.EventRecord, len(resp.Data))
	for i, e := range resp.Data {
		records[i] = metrics.EventRecord{Timestamp: e.TS, Category: e.Metric, Count: strconv.FormatInt(e.Count, 10)}
	}
	series := metrics.AggregateByTimestamp(records, sel.Year())

	// Only actions that saw traffic make the distribution chart.
	actionTotals := map[string]int64{}
	for action, total := range map[string]int64{
		"block":       resp.TotalBlock,
		"managed":     resp.TotalManaged,
		"jschallenge": resp.TotalJSChallenge,
		"log":         resp.TotalLog,
		"skip":        resp.TotalSkip,
		"allow":       resp.TotalAllow,
		"rewrite":     resp.TotalRewrite,
		"challenge":   resp.TotalChallenge,
	} {
		if total > 0 {
			actionTotals[action] = total
		}
	}
	ranked := metrics.RankTopN(actionTotals, len(actionTotals), resp.TotalRequests, 1)
	actions := make([]models.ActionTotal, len(ranked))
	for i, e := range ranked {
		actions[i] = models.ActionTotal{Metric: e.Category, Total: e.Count, Percentage: e.Percentage}
	}

	return &models.SummaryView{
		Series:        series,
		Actions:       actions,
		TotalRequests: resp.TotalRequests,
		TotalCompact:  metrics.FormatCompact(resp.TotalRequests),
	}, nil
}

// top5Dimension maps a breakdown key to its card title and entries.
type top5Dimension struct {
	key   string
	title string
	items []models.Top5Item
}

// Top5 builds the per-dimension ranking cards. Dimensions absent from
// the payload are skipped, not rendered empty.
func (v *ViewBuilder) Top5(ctx context.Context, sel Selection) (interface{}, error) {
	resp, err := v.upstream.Top5Sec(ctx, sel.ClientName, sel.MonthRef)
	if err != nil {
		return nil, err
	}

	d := resp.Data
	ordered := []top5Dimension{
		{"countries", "Top Countries", d.TopCountries},
		{"asns", "Top ASNs", d.TopASNs},
		{"userAgents", "Top User Agents", d.TopUserAgents},
		{"referers", "Top Referers", d.TopReferers},
		{"uriPaths", "Top URI Paths", d.TopURIPaths},
		{"hosts", "Top Hosts", d.TopHosts},
		{"managedRules", "Top Managed Rules", d.TopManagedRules},
		{"ips", "Top Source IPs", d.TopIPs},
		{"httpMethods", "Top HTTP Methods", d.TopHTTPMethods},
		{"firewallRules", "Top Firewall Rules", d.TopFirewallRules},
		{"zones", "Top Zones", d.TopZones},
		{"rateLimitRules", "Top Rate Limit Rules", d.TopRateLimitRules},
	}

	dims := make([]models.DimensionRanking, 0, len(ordered))
	for _, dim := range ordered {
		if len(dim.items) == 0 {
			continue
		}
		entries := make([]metrics.RankingEntry, len(dim.items))
		var share float64
		for i, item := range dim.items {
			category := item.Value
			if dim.key == "ips" && v.geo != nil {
				if cc := v.geo.CountryFor(item.Value); cc != "" {
					category = item.Value + " (" + cc + ")"
				}
			}
			entries[i] = metrics.RankingEntry{
				Category:       category,
				Count:          item.Count,
				Percentage:     item.Percentage,
				SampleInterval: item.AvgSampleInterval,
			}
			if p, err := strconv.ParseFloat(item.Percentage, 64); err == nil {
				share += p
			}
		}
		dims = append(dims, models.DimensionRanking{
			Key:       dim.key,
			Title:     dim.title,
			Entries:   entries,
			Top5Share: metrics.FormatPercent(share, 1),
		})
	}

	return &models.Top5View{
		Dimensions:    dims,
		TotalRequests: resp.TotalRequests,
		TotalCompact:  metrics.FormatCompact(resp.TotalRequests),
		Period:        resp.Period,
	}, nil
}

// Bandwidth builds the cache-vs-origin section from the monthly stats
// history plus the delivery-type series of the reference month.
func (v *ViewBuilder) Bandwidth(ctx context.Context, sel Selection) (interface{}, error) {
	stats, err := v.upstream.Stats(ctx, sel.AccountID)
	if err != nil {
		return nil, err
	}
	graph, err := v.upstream.GraphData(ctx, sel.ClientName, sel.MonthRef)
	if err != nil {
		return nil, err
	}

	cacheOrigin := make([]models.MonthShare, len(stats))
	for i, s := range stats {
		cacheOrigin[i] = models.MonthShare{
			Name:   monthName(s.MonthYear),
			Cache:  s.CachePercentage,
			Origin: s.OriginPercentage,
		}
	}

	records := make([]metrics.EventRecord, len(graph.Data))
	for i, e := range graph.Data {
		records[i] = metrics.EventRecord{Timestamp: e.TS, Category: e.Type, Count: strconv.FormatInt(e.Count, 10)}
	}

	return &models.BandwidthView{
		CacheOrigin:  cacheOrigin,
		Distribution: metrics.AggregateByTimestamp(records, sel.Year()),
	}, nil
}

// DataSec builds the traffic-vs-security section.
func (v *ViewBuilder) DataSec(ctx context.Context, sel Selection) (interface{}, error) {
	resp, err := v.upstream.GraphDataSec(ctx, sel.ClientName, sel.MonthRef)
	if err != nil {
		return nil, err
	}

	records := make([]metrics.EventRecord, len(resp.Data))
	for i, e := range resp.Data {
		records[i] = metrics.EventRecord{Timestamp: e.TS, Category: e.EventType, Count: strconv.FormatInt(e.EventCount, 10)}
	}

	return &models.DataSecView{
		Series: metrics.AggregateByTimestamp(records, sel.Year()),
		Cards: models.DataSecCards{
			TotalRequests:     resp.RequestsTotal,
			ValidRequests:     resp.ValidRequests,
			TotalMitigated:    resp.MitigatedRequests + resp.TotalManaged + resp.TotalChallenge,
			BlockedPercentage: resp.BlockedPercentage,
			TotalBlock:        resp.MitigatedRequests,
			TotalManaged:      resp.TotalManaged,
			TotalInteractive:  resp.TotalChallenge,
		},
	}, nil
}

// Traffic builds the overview section: the reference month's stat cards
// plus the hosts table with certificate expiry warnings.
func (v *ViewBuilder) Traffic(ctx context.Context, sel Selection) (interface{}, error) {
	hosts, err := v.upstream.Hosts(ctx, sel.ClientName)
	if err != nil {
		return nil, err
	}
	stats, err := v.upstream.Stats(ctx, sel.AccountID)
	if err != nil {
		return nil, err
	}

	current := statsForMonth(stats, sel.MonthRef)
	cards := []models.StatCard{
		{Label: "Total Requests", Value: metrics.FormatCompact(current.TotalRequests)},
		{Label: "Bandwidth Used", Value: metrics.FormatBandwidth(current.BandwidthUsed)},
		{Label: "Unique Visits", Value: metrics.FormatCompact(current.UniqueVisits)},
		{Label: "Page Views", Value: metrics.FormatCompact(current.PageViews)},
	}

	now := time.Now()
	rows := make([]models.HostRow, len(hosts))
	var expiring []string
	for i, h := range hosts {
		row := models.HostRow{Host: h, ExpiryDisplay: "n/a"}
		if h.CertExpiry != "" {
			row.ExpiryDisplay = metrics.FormatDate(h.CertExpiry)
			if expiry, ok := metrics.ParseFlexibleDate(h.CertExpiry); ok {
				row.ExpiringSoon = expiry.Before(now.Add(certWarningWindow))
			}
		}
		if row.ExpiringSoon {
			expiring = append(expiring, h.Name)
		}
		rows[i] = row
	}
	v.alertExpiringCerts(sel.ClientName, expiring)

	return &models.TrafficView{Cards: cards, Hosts: rows, Stats: current}, nil
}

// alertExpiringCerts fires the webhook at most once per client per
// process; the hosts table is refetched on every selection change and
// the alert must not repeat with it.
func (v *ViewBuilder) alertExpiringCerts(clientName string, hosts []string) {
	if v.webhook == nil || !v.webhook.IsEnabled() || len(hosts) == 0 {
		return
	}

	v.mu.Lock()
	if v.certAlerted[clientName] {
		v.mu.Unlock()
		return
	}
	v.certAlerted[clientName] = true
	v.mu.Unlock()

	if err := v.webhook.SendCertExpiryAlert(clientName, hosts); err != nil {
		system.Warn("Failed to send certificate expiry alert for %s: %v", clientName, err)
	}
}

// RequestMetrics builds the multi-month request history, scaled to
// millions for the composed chart, oldest month first.
func (v *ViewBuilder) RequestMetrics(ctx context.Context, sel Selection) (interface{}, error) {
	rows, err := v.upstream.SecurityAnalysis(ctx, sel.ClientName)
	if err != nil {
		return nil, err
	}

	type dated struct {
		at time.Time
		m  models.MonthMetrics
	}
	parsed := make([]dated, len(rows))
	for i, r := range rows {
		at, _ := metrics.ParseFlexibleDate(r.CreatedAt)
		blockPct, _ := strconv.ParseFloat(r.BlockedRequests, 64)
		parsed[i] = dated{at: at, m: models.MonthMetrics{
			Month:           monthName(r.CreatedAt),
			TotalM:          float64(r.RequestsTotal) / 1e6,
			ValidM:          float64(r.ValidRequests) / 1e6,
			MitigatedM:      float64(r.TotalMitigated) / 1e6,
			BlockPercentage: blockPct,
		}}
	}
	sort.SliceStable(parsed, func(i, j int) bool { return parsed[i].at.Before(parsed[j].at) })

	months := make([]models.MonthMetrics, len(parsed))
	for i, p := range parsed {
		months[i] = p.m
	}
	return &models.RequestMetricsView{Months: months}, nil
}

// statsForMonth picks the stats row matching the reference month,
// falling back to the first row when the month has no entry yet.
func statsForMonth(stats []models.MonthlyStats, monthRef string) models.MonthlyStats {
	ref, err := time.Parse("01-2006", monthRef)
	if err == nil {
		for _, s := range stats {
			if t, ok := metrics.ParseFlexibleDate(s.MonthYear); ok &&
				t.Year() == ref.Year() && t.Month() == ref.Month() {
				return s
			}
		}
	}
	if len(stats) > 0 {
		return stats[0]
	}
	return models.MonthlyStats{}
}

// monthName renders any upstream date as a short month label ("Jan 06").
func monthName(raw string) string {
	if t, ok := metrics.ParseFlexibleDate(raw); ok {
		return t.Format("Jan 06")
	}
	return raw
}
