package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cdn-metrics-dashboard/metrics"
	"cdn-metrics-dashboard/models"
	"cdn-metrics-dashboard/system"
)

// SectionInfo describes one sidebar entry of the dashboard shell.
type SectionInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Board is the dashboard shell: it owns the one client/month selection,
// the client directory, and one adapter per section. Changing the
// selection fans out to all adapters concurrently; each resolves on its
// own schedule and no section depends on another's fetch.
type Board struct {
	upstream *UpstreamClient
	cfg      system.SelectionConfig

	sections []SectionInfo
	adapters map[string]*Adapter

	mu      sync.Mutex
	sel     Selection
	cancel  context.CancelFunc
	snap    *models.InitSnapshot
	clients []models.Client
}

func NewBoard(upstream *UpstreamClient, geo *GeoResolver, webhook *WebhookService, cfg system.SelectionConfig) *Board {
	b := &Board{
		upstream: upstream,
		cfg:      cfg,
		adapters: make(map[string]*Adapter),
	}

	views := NewViewBuilder(upstream, geo, webhook, cfg.TopN)

	b.register("traffic", "Traffic Overview", views.Traffic)
	b.register("bandwidth", "Bandwidth Saver", views.Bandwidth)
	b.register("datasec", "Traffic x Security", views.DataSec)
	b.register("security", "Security Analysis", views.Security)
	b.register("attack", "Attacks by Country", views.Attack)
	b.register("summary", "Mitigation Summary", views.Summary)
	b.register("top5", "Top 5 Breakdowns", views.Top5)
	b.register("metrics", "Request Metrics", views.RequestMetrics)

	return b
}

func (b *Board) register(id, title string, fetch FetchFunc) {
	b.sections = append(b.sections, SectionInfo{ID: id, Title: title})
	b.adapters[id] = NewAdapter(id, fetch)
}

// Sections lists the sidebar entries in display order.
func (b *Board) Sections() []SectionInfo {
	return b.sections
}

// Months lists the selectable reference months, newest first.
func (b *Board) Months() []string {
	return MonthWindow(time.Now().UTC(), b.cfg.Months)
}

// bootstrap fetches the /initializing snapshot once and caches it; the
// client directory and the sync log are both carved out of it.
func (b *Board) bootstrap(ctx context.Context) (*models.InitSnapshot, error) {
	b.mu.Lock()
	cached := b.snap
	b.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	snap, err := b.upstream.Initializing(ctx)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.snap = snap
	b.clients = DedupeClients(snap.Clients)
	b.mu.Unlock()
	return snap, nil
}

// Clients returns the deduplicated, name-sorted client directory. It is
// fetched from the upstream once and then reused; the directory changes
// rarely and the selector re-renders often.
func (b *Board) Clients(ctx context.Context) ([]models.Client, error) {
	if _, err := b.bootstrap(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clients, nil
}

// SyncLog returns the ingestion bookkeeping of the bootstrap snapshot,
// formatted for the landing page's sync log panel.
func (b *Board) SyncLog(ctx context.Context) (*models.SyncLogView, error) {
	snap, err := b.bootstrap(ctx)
	if err != nil {
		return nil, err
	}

	view := &models.SyncLogView{
		Ingestion:   make([]models.IngestLine, len(snap.Stats)),
		Collections: make([]string, len(snap.Performance)),
	}
	for i, st := range snap.Stats {
		view.Ingestion[i] = models.IngestLine{
			Month: monthName(st.MonthYear),
			Lines: metrics.FormatInteger(st.LineCount),
		}
	}
	for i, p := range snap.Performance {
		view.Collections[i] = metrics.FormatDate(p.CreatedAt)
	}
	if len(snap.SecurityAnalytics) > 0 {
		w := snap.SecurityAnalytics[0]
		view.Window = &models.SampleSpan{
			From: metrics.FormatDate(w.MinTS),
			To:   metrics.FormatDate(w.MaxTS),
		}
	}
	return view, nil
}

// SetSelection switches the dashboard to a client/month pair. Unchanged
// input is a no-op; otherwise every in-flight fetch is logically
// cancelled and all sections refetch for the new selection.
func (b *Board) SetSelection(ctx context.Context, clientName, monthRef string) error {
	if err := ValidateMonthRef(monthRef); err != nil {
		return err
	}

	clients, err := b.Clients(ctx)
	if err != nil {
		return fmt.Errorf("client directory unavailable: %w", err)
	}
	var accountID string
	for _, c := range clients {
		if c.ClientName == clientName {
			accountID = c.AccountID
			break
		}
	}
	if accountID == "" {
		return fmt.Errorf("unknown client %q", clientName)
	}

	sel := Selection{ClientName: clientName, AccountID: accountID, MonthRef: monthRef}

	b.mu.Lock()
	if b.sel == sel {
		b.mu.Unlock()
		return nil
	}
	if b.cancel != nil {
		b.cancel()
	}
	// Fetches are detached from the request that changed the selection;
	// they finish (or get cancelled by the next change) on their own.
	fetchCtx, cancel := context.WithCancel(context.Background())
	b.sel = sel
	b.cancel = cancel
	b.mu.Unlock()

	system.Info("Selection changed: client=%s month=%s", clientName, monthRef)
	for _, adapter := range b.adapters {
		adapter.Refresh(fetchCtx, sel)
	}
	return nil
}

// Selection returns the current client/month pair.
func (b *Board) Selection() Selection {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sel
}

// Snapshot returns the state of one section adapter.
func (b *Board) Snapshot(section string) (Snapshot, bool) {
	adapter, ok := b.adapters[section]
	if !ok {
		return Snapshot{}, false
	}
	return adapter.State(), true
}

// Snapshots returns every section's state in display order.
func (b *Board) Snapshots() []Snapshot {
	out := make([]Snapshot, 0, len(b.sections))
	for _, s := range b.sections {
		out = append(out, b.adapters[s.ID].State())
	}
	return out
}
