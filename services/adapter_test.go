package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitSettled(t *testing.T, a *Adapter) Snapshot {
	t.Helper()
	require.Eventually(t, func() bool {
		return !a.State().Loading
	}, 2*time.Second, 5*time.Millisecond)
	return a.State()
}

func TestAdapterFetchSuccess(t *testing.T) {
	a := NewAdapter("attack", func(ctx context.Context, sel Selection) (interface{}, error) {
		return "payload-" + sel.MonthRef, nil
	})

	sel := Selection{ClientName: "Acme", AccountID: "acc-1", MonthRef: "07-2026"}
	a.Refresh(context.Background(), sel)

	snap := waitSettled(t, a)
	assert.Equal(t, "payload-07-2026", snap.Data)
	assert.Empty(t, snap.Error)
	assert.Equal(t, sel, snap.Selection)
}

func TestAdapterClearsDataWhileLoading(t *testing.T) {
	release := make(chan struct{})
	a := NewAdapter("attack", func(ctx context.Context, sel Selection) (interface{}, error) {
		<-release
		return sel.MonthRef, nil
	})

	a.Refresh(context.Background(), Selection{ClientName: "Acme", AccountID: "acc-1", MonthRef: "06-2026"})
	snap := a.State()
	assert.True(t, snap.Loading)
	assert.Nil(t, snap.Data)

	close(release)
	waitSettled(t, a)
}

func TestAdapterDropsStaleResponse(t *testing.T) {
	// The first selection's fetch resolves after the second's: the late
	// result must be discarded, not rendered.
	gates := map[string]chan struct{}{
		"06-2026": make(chan struct{}),
		"07-2026": make(chan struct{}),
	}
	a := NewAdapter("attack", func(ctx context.Context, sel Selection) (interface{}, error) {
		<-gates[sel.MonthRef]
		return "payload-" + sel.MonthRef, nil
	})

	first := Selection{ClientName: "Acme", AccountID: "acc-1", MonthRef: "06-2026"}
	second := Selection{ClientName: "Acme", AccountID: "acc-1", MonthRef: "07-2026"}

	a.Refresh(context.Background(), first)
	a.Refresh(context.Background(), second)

	close(gates["07-2026"])
	snap := waitSettled(t, a)
	assert.Equal(t, "payload-07-2026", snap.Data)

	close(gates["06-2026"])
	// Give the stale goroutine time to (incorrectly) commit.
	time.Sleep(50 * time.Millisecond)
	snap = a.State()
	assert.Equal(t, "payload-07-2026", snap.Data)
	assert.Equal(t, second, snap.Selection)
}

func TestAdapterRefreshSameSelectionIsNoop(t *testing.T) {
	calls := 0
	a := NewAdapter("attack", func(ctx context.Context, sel Selection) (interface{}, error) {
		calls++
		return "ok", nil
	})

	sel := Selection{ClientName: "Acme", AccountID: "acc-1", MonthRef: "07-2026"}
	a.Refresh(context.Background(), sel)
	waitSettled(t, a)
	a.Refresh(context.Background(), sel)
	waitSettled(t, a)

	assert.Equal(t, 1, calls)
}

func TestAdapterRetriesAfterFailure(t *testing.T) {
	calls := 0
	a := NewAdapter("attack", func(ctx context.Context, sel Selection) (interface{}, error) {
		calls++
		if calls == 1 {
			return nil, fmt.Errorf("connection refused")
		}
		return "ok", nil
	})

	sel := Selection{ClientName: "Acme", AccountID: "acc-1", MonthRef: "07-2026"}
	a.Refresh(context.Background(), sel)
	snap := waitSettled(t, a)
	assert.Equal(t, "failed to load attack data", snap.Error)
	assert.Nil(t, snap.Data)

	a.Refresh(context.Background(), sel)
	snap = waitSettled(t, a)
	assert.Equal(t, "ok", snap.Data)
	assert.Empty(t, snap.Error)
}

func TestAdapterRejectionMessageIsShown(t *testing.T) {
	a := NewAdapter("security", func(ctx context.Context, sel Selection) (interface{}, error) {
		return nil, rejected("No data for the selected period")
	})

	a.Refresh(context.Background(), Selection{ClientName: "Acme", AccountID: "acc-1", MonthRef: "07-2026"})
	snap := waitSettled(t, a)
	assert.Contains(t, snap.Error, "No data for the selected period")
}
