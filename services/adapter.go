package services

import (
	"context"
	"errors"
	"sync"

	"cdn-metrics-dashboard/system"
)

// FetchFunc loads and aggregates one section's data for a selection.
type FetchFunc func(ctx context.Context, sel Selection) (interface{}, error)

// Adapter owns the fetched state of exactly one dashboard section. It
// exposes the {data, loading, error} triple the view renders and guards
// against out-of-order responses: every fetch captures a token from a
// monotonically increasing counter, and a response whose token is no
// longer the latest is dropped instead of overwriting newer state.
type Adapter struct {
	name  string
	fetch FetchFunc

	mu      sync.Mutex
	token   uint64
	started bool
	sel     Selection
	data    interface{}
	errMsg  string
	loading bool
}

// Snapshot is the render-ready view of an adapter. Data is nil while
// loading or after a failure; the originating selection is included so a
// consumer can verify it matches the current one.
type Snapshot struct {
	Section   string      `json:"section"`
	Selection Selection   `json:"selection"`
	Loading   bool        `json:"loading"`
	Error     string      `json:"error,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func NewAdapter(name string, fetch FetchFunc) *Adapter {
	return &Adapter{name: name, fetch: fetch}
}

func (a *Adapter) Name() string {
	return a.name
}

// Refresh starts an asynchronous fetch for the given selection. A repeat
// call with the unchanged selection is a no-op unless the previous fetch
// failed; a changed selection drops the held data immediately so stale
// results are never rendered while the new fetch is in flight.
func (a *Adapter) Refresh(ctx context.Context, sel Selection) {
	a.mu.Lock()
	if a.started && a.sel == sel && a.errMsg == "" {
		a.mu.Unlock()
		return
	}
	a.started = true
	a.token++
	token := a.token
	a.sel = sel
	a.data = nil
	a.errMsg = ""
	a.loading = true
	a.mu.Unlock()

	go a.run(ctx, token, sel)
}

func (a *Adapter) run(ctx context.Context, token uint64, sel Selection) {
	data, err := a.fetch(ctx, sel)

	a.mu.Lock()
	defer a.mu.Unlock()

	if token != a.token {
		// A newer selection was issued while this fetch was in flight.
		system.Debug("Adapter %s: dropping stale response for %s/%s", a.name, sel.ClientName, sel.MonthRef)
		return
	}

	a.loading = false
	if err != nil {
		a.errMsg = a.userMessage(err)
		system.Warn("Adapter %s: fetch failed for %s/%s: %v", a.name, sel.ClientName, sel.MonthRef, err)
		return
	}
	a.data = data
}

// userMessage maps a fetch error to the string the view shows. Backend
// rejections carry their own message; transport failures collapse into a
// generic one so internals never leak to the dashboard.
func (a *Adapter) userMessage(err error) string {
	if errors.Is(err, ErrUpstreamRejected) {
		return err.Error()
	}
	return "failed to load " + a.name + " data"
}

// State returns the current snapshot.
func (a *Adapter) State() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		Section:   a.name,
		Selection: a.sel,
		Loading:   a.loading,
		Error:     a.errMsg,
		Data:      a.data,
	}
}
