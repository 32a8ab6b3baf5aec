package metrics

import (
	"math"
	"sort"
	"strconv"
)

// RankingEntry is one line of a top-N breakdown along a single dimension
// (country, ASN, URI path, ...). Percentage is preformatted because it is
// rendered verbatim; the entries of a top-N need not sum to 100% since only
// the N largest of possibly many categories are listed.
type RankingEntry struct {
	Category       string  `json:"value"`
	Count          int64   `json:"count"`
	Percentage     string  `json:"percentage"`
	SampleInterval float64 `json:"avg_sample_interval,omitempty"`
}

// RankTopN sorts categories descending by total and returns the first n
// with their share of grandTotal formatted to the given decimal places.
// Equal totals are broken by category name ascending so the ordering is
// deterministic regardless of map iteration order. A zero grandTotal
// yields "0" percentages rather than NaN.
func RankTopN(totals map[string]int64, n int, grandTotal int64, decimals int) []RankingEntry {
	if n <= 0 || len(totals) == 0 {
		return []RankingEntry{}
	}

	entries := make([]RankingEntry, 0, len(totals))
	for category, count := range totals {
		entries = append(entries, RankingEntry{Category: category, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Category < entries[j].Category
	})

	if len(entries) > n {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Percentage = FormatPercent(DeriveRate(float64(entries[i].Count), float64(grandTotal)), decimals)
	}
	return entries
}

// DeriveRate returns numerator/denominator as a percentage, or 0 when the
// denominator is 0. Never returns NaN or Inf; the rendering layer charts
// whatever it gets.
func DeriveRate(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	rate := numerator / denominator * 100
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0
	}
	return rate
}

// FormatPercent renders a rate with a fixed number of decimals; zero is
// rendered as plain "0" to match the upstream percentage strings.
func FormatPercent(rate float64, decimals int) string {
	if rate == 0 {
		return "0"
	}
	if decimals < 0 {
		decimals = 0
	}
	return strconv.FormatFloat(rate, 'f', decimals, 64)
}
