package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankTopNOrderAndTieBreak(t *testing.T) {
	totals := map[string]int64{"A": 100, "B": 50, "C": 50, "D": 10}

	entries := RankTopN(totals, 3, 210, 2)

	require.Len(t, entries, 3)
	assert.Equal(t, "A", entries[0].Category)
	assert.Equal(t, "47.62", entries[0].Percentage)
	// B and C tie on 50; alphabetical tie-break keeps the order stable.
	assert.Equal(t, "B", entries[1].Category)
	assert.Equal(t, "C", entries[2].Category)
	assert.Equal(t, "23.81", entries[1].Percentage)
	assert.Equal(t, "23.81", entries[2].Percentage)
}

func TestRankTopNZeroGrandTotal(t *testing.T) {
	entries := RankTopN(map[string]int64{"A": 5}, 5, 0, 1)

	require.Len(t, entries, 1)
	assert.Equal(t, "0", entries[0].Percentage)
}

func TestRankTopNFewerCategoriesThanN(t *testing.T) {
	entries := RankTopN(map[string]int64{"BR": 80}, 5, 80, 1)

	require.Len(t, entries, 1)
	assert.Equal(t, "100.0", entries[0].Percentage)
}

func TestRankTopNEmpty(t *testing.T) {
	assert.Empty(t, RankTopN(nil, 5, 100, 1))
	assert.Empty(t, RankTopN(map[string]int64{"A": 1}, 0, 100, 1))
}

func TestDeriveRate(t *testing.T) {
	assert.Equal(t, float64(0), DeriveRate(0, 0))
	assert.Equal(t, float64(0), DeriveRate(5, 0))
	assert.InDelta(t, 50.0, DeriveRate(1, 2), 1e-9)
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "0", FormatPercent(0, 2))
	assert.Equal(t, "33.3", FormatPercent(100.0/3.0, 1))
}
