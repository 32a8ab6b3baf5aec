package demo

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"cdn-metrics-dashboard/system"
)

// Seed populates an empty demo database with four months of plausible
// traffic for a handful of clients. The generator is keyed on client and
// month, so reseeding produces identical data.

var demoClients = []Client{
	{AccountID: "acc-1001", ClientName: "Acme Retail", CreatedAt: "2023-04-12 09:15:00"},
	{AccountID: "acc-1002", ClientName: "Borealis Media", CreatedAt: "2023-09-01 14:02:00"},
	{AccountID: "acc-1003", ClientName: "Cetus Logistics", CreatedAt: "2024-02-20 11:40:00"},
}

var (
	countries       = []string{"BR", "US", "CN", "RU", "DE", "IN", "FR", "NL"}
	actions         = []string{"block", "managed_challenge", "jschallenge", "log", "skip"}
	deliveryTypes   = []string{"servedByCloudflare", "servedByOrigin"}
	securityEvents  = []string{"mitigated", "managed", "interactive"}
	classifications = []string{"attack", "likely_attack", "likely_clean", "clean"}
	dimensions      = []string{"countries", "asns", "userAgents", "uriPaths", "hosts", "ips", "httpMethods"}
)

func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&Client{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		system.Info("Demo database already seeded (%d clients)", count)
		return nil
	}

	now := time.Now().UTC()
	months := make([]time.Time, 0, 4)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 4; i++ {
		months = append(months, first.AddDate(0, -i, 0))
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, client := range demoClients {
			if err := tx.Create(&client).Error; err != nil {
				return err
			}
			if err := seedHosts(tx, client); err != nil {
				return err
			}
			for _, month := range months {
				if err := seedMonth(tx, client, month); err != nil {
					return err
				}
			}
		}
		system.Info("Demo database seeded: %d clients, %d months each", len(demoClients), len(months))
		return nil
	})
}

func seedHosts(tx *gorm.DB, client Client) error {
	rng := rngFor(client.ClientName, "hosts")
	zones := []string{"www", "api", "cdn", "static"}
	for i, zone := range zones {
		total := int64(rng.Intn(9_000_000) + 500_000)
		cacheHit := total * int64(60+rng.Intn(35)) / 100
		expiry := time.Now().UTC().AddDate(0, 0, 20+rng.Intn(300))
		if i == 0 {
			// First zone sits inside the warning window.
			expiry = time.Now().UTC().AddDate(0, 0, 10)
		}
		host := Host{
			AccountID:              client.AccountID,
			ClientName:             client.ClientName,
			Name:                   fmt.Sprintf("%s.%s.example.com", zone, slug(client.ClientName)),
			TotalRequests:          total,
			CacheHit:               cacheHit,
			OriginFetch:            total - cacheHit,
			AccelerationPercentage: 40 + rng.Float64()*50,
			LatencyImprovement:     10 + rng.Float64()*60,
			CertExpiry:             expiry.Format("2006-01-02 15:04:05"),
		}
		if err := tx.Create(&host).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedMonth(tx *gorm.DB, client Client, month time.Time) error {
	monthRef := month.Format("01-2006")
	rng := rngFor(client.ClientName, monthRef)

	total := int64(rng.Intn(40_000_000) + 5_000_000)
	cachePct := 55 + rng.Float64()*35
	stat := MonthlyStat{
		AccountID:        client.AccountID,
		MonthYear:        month.Format("2006-01-02"),
		TotalRequests:    total,
		BandwidthUsed:    float64(total) * (2_000 + rng.Float64()*8_000),
		UniqueVisits:     total / int64(8+rng.Intn(20)),
		PageViews:        total / int64(2+rng.Intn(4)),
		CachePercentage:  cachePct,
		OriginPercentage: 100 - cachePct,
	}
	if err := tx.Create(&stat).Error; err != nil {
		return err
	}

	days := daysIn(month)
	events := make([]DailyEvent, 0, days*12)
	for day := 1; day <= days; day++ {
		ts := fmt.Sprintf("%02d-%02d", day, int(month.Month()))
		add := func(kind, category string, n int64) {
			events = append(events, DailyEvent{
				AccountID:  client.AccountID,
				ClientName: client.ClientName,
				MonthRef:   monthRef,
				TS:         ts,
				Kind:       kind,
				Category:   category,
				Count:      n,
			})
		}

		for _, c := range countries[:3+rng.Intn(len(countries)-3)] {
			add(KindCountry, c, int64(rng.Intn(40_000)))
		}
		for _, a := range actions {
			add(KindAction, a, int64(rng.Intn(25_000)))
		}
		daily := total / int64(days)
		cached := daily * int64(cachePct) / 100
		add(KindDelivery, deliveryTypes[0], cached)
		add(KindDelivery, deliveryTypes[1], daily-cached)
		for _, s := range securityEvents {
			add(KindSecurity, s, int64(rng.Intn(60_000)))
		}
		clean := daily * int64(80+rng.Intn(15)) / 100
		add(KindClassification, "clean", clean)
		add(KindClassification, "likely_clean", (daily-clean)/2)
		add(KindClassification, "likely_attack", (daily-clean)/3)
		add(KindClassification, "attack", (daily-clean)/6)
	}
	if err := tx.CreateInBatches(events, 500).Error; err != nil {
		return err
	}

	if err := seedTopSamples(tx, client, monthRef, rng); err != nil {
		return err
	}

	blocked := 1 + rng.Float64()*9
	analysis := SecurityAnalysis{
		ClientName:      client.ClientName,
		CreatedAt:       month.Format("2006-01-02 15:04:05"),
		RequestsTotal:   total,
		ValidRequests:   total * int64(100-int(blocked)) / 100,
		TotalMitigated:  total * int64(blocked) / 100,
		BlockedRequests: fmt.Sprintf("%.2f", blocked),
	}
	return tx.Create(&analysis).Error
}

func seedTopSamples(tx *gorm.DB, client Client, monthRef string, rng *rand.Rand) error {
	valuesFor := map[string][]string{
		"countries":   countries[:5],
		"asns":        {"AS13335", "AS15169", "AS16509", "AS8075", "AS4134"},
		"userAgents":  {"Mozilla/5.0", "curl/8.4.0", "python-requests/2.31", "Go-http-client/1.1", "okhttp/4.12"},
		"uriPaths":    {"/", "/login", "/api/v1/orders", "/wp-admin", "/search"},
		"hosts":       {"www", "api", "cdn", "static", "img"},
		"ips":         {"203.0.113.10", "198.51.100.23", "192.0.2.77", "203.0.113.200", "198.51.100.9"},
		"httpMethods": {"GET", "POST", "HEAD", "PUT", "OPTIONS"},
	}

	for _, dim := range dimensions {
		values := valuesFor[dim]
		grand := int64(rng.Intn(2_000_000) + 200_000)
		remaining := grand
		for rank, value := range values {
			cnt := remaining / int64(2+rank)
			remaining -= cnt
			sample := TopSample{
				ClientName:        client.ClientName,
				MonthRef:          monthRef,
				Dimension:         dim,
				Value:             value,
				Count:             cnt,
				Percentage:        fmt.Sprintf("%.2f", float64(cnt)/float64(grand)*100),
				AvgSampleInterval: 1 + rng.Float64()*9,
				Rank:              rank + 1,
			}
			if err := tx.Create(&sample).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// rngFor keys the generator on client and scope so reseeding is
// reproducible.
func rngFor(parts ...string) *rand.Rand {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

func daysIn(month time.Time) int {
	return time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, -1).Day()
}

func slug(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		}
	}
	return string(out)
}
