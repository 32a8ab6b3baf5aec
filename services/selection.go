package services

import (
	"fmt"
	"sort"
	"time"

	"cdn-metrics-dashboard/models"
)

// ErrBadMonthRef reports a reference month that is not MM-YYYY.
var ErrBadMonthRef = fmt.Errorf("invalid reference month, want MM-YYYY")

// Selection is the single piece of shared state on the dashboard: which
// client and which reference month every section is scoped to. It is
// owned by the board and passed to adapters read-only.
type Selection struct {
	ClientName string `json:"client_name"`
	AccountID  string `json:"account_id"`
	MonthRef   string `json:"month_ref"` // MM-YYYY
}

func (s Selection) IsZero() bool {
	return s.ClientName == "" || s.MonthRef == ""
}

// Year returns the calendar year of the reference month. The aggregation
// pipeline needs it to order day-month timestamps; the year is never
// guessed from "now".
func (s Selection) Year() int {
	t, err := time.Parse("01-2006", s.MonthRef)
	if err != nil {
		return time.Now().UTC().Year()
	}
	return t.Year()
}

// ValidateMonthRef checks the MM-YYYY form.
func ValidateMonthRef(monthRef string) error {
	if _, err := time.Parse("01-2006", monthRef); err != nil {
		return fmt.Errorf("%w: %q", ErrBadMonthRef, monthRef)
	}
	return nil
}

// MonthWindow lists the selectable reference months: the `count` months
// preceding now, newest first, as MM-YYYY strings. The current month is
// excluded because its aggregates are still being collected.
func MonthWindow(now time.Time, count int) []string {
	if count <= 0 {
		count = 3
	}
	months := make([]string, 0, count)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= count; i++ {
		months = append(months, first.AddDate(0, -i, 0).Format("01-2006"))
	}
	return months
}

// DedupeClients drops duplicate account ids (the backend join repeats
// clients per zone) keeping first occurrence, then sorts by display name.
func DedupeClients(clients []models.Client) []models.Client {
	seen := make(map[string]bool, len(clients))
	out := make([]models.Client, 0, len(clients))
	for _, c := range clients {
		if seen[c.AccountID] {
			continue
		}
		seen[c.AccountID] = true
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ClientName < out[j].ClientName
	})
	return out
}
