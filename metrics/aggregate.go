package metrics

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

// EventRecord is one timestamped, categorized count as returned by the
// backend's security/traffic endpoints. Count arrives as a string on some
// endpoints and as a number on others, so it is kept raw here and parsed
// defensively during aggregation.
type EventRecord struct {
	Timestamp string
	Category  string
	Count     string
}

// Row is one point of a chronological series: the raw timestamp label plus
// one summed value per category seen on that timestamp. Categories absent
// on a timestamp are absent from Values, not zero; chart libraries treat
// missing keys as gaps, which matches the source dashboards.
type Row struct {
	Date   string
	Values map[string]int64
}

// MarshalJSON flattens the row into a single chart-ready object:
// {"date":"01-10","BR":50,"US":3}
func (r Row) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(r.Values)+1)
	flat["date"] = r.Date
	for k, v := range r.Values {
		flat[k] = v
	}
	return json.Marshal(flat)
}

// ParseCount converts a raw count field to int64.
//
// Fail-soft policy: this is a display pipeline, so a malformed or empty
// numeric field contributes 0 instead of failing the whole series. Partial
// data on screen beats a blank panel because one record was bad.
func ParseCount(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Some endpoints report counts as decimals ("80.0").
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return 0
		}
		return int64(f)
	}
	return n
}

// ParseDayMonth parses a day-granularity "DD-MM" timestamp label against an
// explicit year. The source dashboards hard-coded the year when sorting;
// callers here must pass the year of the selected reference month so that
// ordering stays correct across year boundaries.
func ParseDayMonth(label string, year int) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(label), "-")
	if len(parts) != 2 {
		return time.Time{}, false
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// AggregateByTimestamp groups a flat list of event records into one row per
// distinct timestamp, summing counts per category, and returns the rows
// sorted ascending by parsed calendar date. Records sharing (timestamp,
// category) are summed. Unparseable timestamps sort after parseable ones,
// by raw label, so a bad record can never hide the rest of the series.
func AggregateByTimestamp(records []EventRecord, year int) []Row {
	if len(records) == 0 {
		return []Row{}
	}

	byTS := make(map[string]map[string]int64)
	order := make([]string, 0)
	for _, rec := range records {
		if _, ok := byTS[rec.Timestamp]; !ok {
			byTS[rec.Timestamp] = make(map[string]int64)
			order = append(order, rec.Timestamp)
		}
		byTS[rec.Timestamp][rec.Category] += ParseCount(rec.Count)
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, aok := ParseDayMonth(order[i], year)
		b, bok := ParseDayMonth(order[j], year)
		if aok && bok {
			if !a.Equal(b) {
				return a.Before(b)
			}
			return order[i] < order[j]
		}
		if aok != bok {
			return aok
		}
		return order[i] < order[j]
	})

	rows := make([]Row, 0, len(order))
	for _, ts := range order {
		rows = append(rows, Row{Date: ts, Values: byTS[ts]})
	}
	return rows
}

// TotalsByCategory sums all records per category, ignoring timestamps.
// Used to derive rankings when the backend does not ship its own top-N.
func TotalsByCategory(records []EventRecord) map[string]int64 {
	totals := make(map[string]int64, len(records))
	for _, rec := range records {
		totals[rec.Category] += ParseCount(rec.Count)
	}
	return totals
}

// SeriesStats summarizes a chronological series for the given categories:
// total across them, the average per day and the single worst day.
// Days present in the series but carrying none of the categories still
// count as days with data, matching the source's security overview.
type SeriesStats struct {
	Total    int64   `json:"total"`
	PerDay   float64 `json:"per_day"`
	PeakDay  int64   `json:"peak_day"`
	DayCount int     `json:"day_count"`
}

func StatsFor(rows []Row, categories ...string) SeriesStats {
	var stats SeriesStats
	stats.DayCount = len(rows)
	for _, row := range rows {
		var day int64
		for _, cat := range categories {
			day += row.Values[cat]
		}
		stats.Total += day
		if day > stats.PeakDay {
			stats.PeakDay = day
		}
	}
	if stats.DayCount > 0 {
		stats.PerDay = float64(stats.Total) / float64(stats.DayCount)
	}
	return stats
}
