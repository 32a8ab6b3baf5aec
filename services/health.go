package services

import (
	"context"
	"sync"
	"time"

	"cdn-metrics-dashboard/system"
)

// HealthMonitor probes the statistics API periodically and alerts on the
// webhook when it goes down or comes back. The dashboard itself keeps
// serving its last section states during an outage.
type HealthMonitor struct {
	upstream *UpstreamClient
	webhook  *WebhookService

	mu        sync.Mutex
	up        bool
	checked   bool
	lastCheck time.Time
	downSince time.Time

	stop chan struct{}
}

func NewHealthMonitor(upstream *UpstreamClient, webhook *WebhookService) *HealthMonitor {
	return &HealthMonitor{
		upstream: upstream,
		webhook:  webhook,
		stop:     make(chan struct{}),
	}
}

func (h *HealthMonitor) Start() {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		h.check()
		for {
			select {
			case <-ticker.C:
				h.check()
			case <-h.stop:
				return
			}
		}
	}()
	system.Info("Health monitor started for %s", h.upstream.BaseURL())
}

func (h *HealthMonitor) Stop() {
	close(h.stop)
}

// Healthy reports the result of the last probe. Before the first probe
// completes the upstream is assumed healthy.
func (h *HealthMonitor) Healthy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.checked || h.up
}

func (h *HealthMonitor) LastCheck() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastCheck
}

func (h *HealthMonitor) check() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// The client directory is the cheapest endpoint that exercises the
	// full path through the backend's database.
	_, err := h.upstream.Clients(ctx)
	now := time.Now()

	h.mu.Lock()
	wasUp, wasChecked := h.up, h.checked
	h.up = err == nil
	h.checked = true
	h.lastCheck = now
	if err != nil && (!wasChecked || wasUp) {
		h.downSince = now
	}
	downSince := h.downSince
	h.mu.Unlock()

	if !wasChecked {
		if err != nil {
			system.Warn("Statistics API unreachable on first probe: %v", err)
		}
		return
	}

	if wasUp && err != nil {
		system.Error("Statistics API went down: %v", err)
		if werr := h.webhook.SendOutageAlert(h.upstream.BaseURL(), err); werr != nil {
			system.Warn("Failed to send outage alert: %v", werr)
		}
	} else if !wasUp && err == nil {
		system.Info("Statistics API recovered after %s", now.Sub(downSince).Round(time.Second))
		if werr := h.webhook.SendRecoveryAlert(h.upstream.BaseURL(), now.Sub(downSince)); werr != nil {
			system.Warn("Failed to send recovery alert: %v", werr)
		}
	}
}
