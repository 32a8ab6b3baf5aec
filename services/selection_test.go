package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cdn-metrics-dashboard/models"
)

func TestMonthWindowExcludesCurrentMonth(t *testing.T) {
	now := time.Date(2026, time.August, 28, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"07-2026", "06-2026", "05-2026"}, MonthWindow(now, 3))
}

func TestMonthWindowCrossesYearBoundary(t *testing.T) {
	now := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"01-2026", "12-2025", "11-2025"}, MonthWindow(now, 3))
}

func TestMonthWindowDefaultsCount(t *testing.T) {
	now := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	assert.Len(t, MonthWindow(now, 0), 3)
}

func TestValidateMonthRef(t *testing.T) {
	assert.NoError(t, ValidateMonthRef("07-2026"))
	assert.ErrorIs(t, ValidateMonthRef("2026-07"), ErrBadMonthRef)
	assert.ErrorIs(t, ValidateMonthRef("July"), ErrBadMonthRef)
	assert.ErrorIs(t, ValidateMonthRef(""), ErrBadMonthRef)
}

func TestSelectionYear(t *testing.T) {
	assert.Equal(t, 2025, Selection{MonthRef: "12-2025"}.Year())
}

func TestDedupeClientsDropsRepeatedAccountsAndSorts(t *testing.T) {
	in := []models.Client{
		{AccountID: "acc-2", ClientName: "Borealis Media"},
		{AccountID: "acc-1", ClientName: "Acme Retail"},
		{AccountID: "acc-2", ClientName: "Borealis Media"},
		{AccountID: "acc-1", ClientName: "Acme Retail"},
	}

	out := DedupeClients(in)
	assert.Len(t, out, 2)
	assert.Equal(t, "Acme Retail", out[0].ClientName)
	assert.Equal(t, "Borealis Media", out[1].ClientName)
}
