package handlers

import (
	"runtime"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"cdn-metrics-dashboard/system"
)

// ServiceStatus represents the dashboard service's current state.
type ServiceStatus struct {
	OS              string        `json:"os"`
	Uptime          string        `json:"uptime"`
	StartedAt       string        `json:"started_at"`
	HeapMB          float64       `json:"heap_mb"`
	Goroutines      int           `json:"goroutines"`
	UpstreamURL     string        `json:"upstream_url"`
	UpstreamHealthy bool          `json:"upstream_healthy"`
	UpstreamBreaker string        `json:"upstream_breaker"`
	LastHealthCheck string        `json:"last_health_check"`
	Events          []SystemEvent `json:"events"`
}

type SystemEvent struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, warning, error, success
	Message string `json:"message"`
}

// Event log storage with mutex for thread safety
var (
	eventLog   []SystemEvent
	eventMutex sync.RWMutex
)

// AddEvent adds a new event to the log, newest first, capped at 100.
func AddEvent(eventType, message string) {
	eventMutex.Lock()
	defer eventMutex.Unlock()

	event := SystemEvent{
		Time:    time.Now().Format("15:04:05"),
		Type:    eventType,
		Message: message,
	}
	eventLog = append([]SystemEvent{event}, eventLog...)
	if len(eventLog) > 100 {
		eventLog = eventLog[:100]
	}

	switch eventType {
	case "error":
		system.Error(message)
	case "warning":
		system.Warn(message)
	default:
		system.Info(message)
	}
}

// GetEventLog returns a copy of the event log.
func GetEventLog() []SystemEvent {
	eventMutex.RLock()
	defer eventMutex.RUnlock()

	result := make([]SystemEvent, len(eventLog))
	copy(result, eventLog)
	return result
}

// GetStatus - Service status, upstream health and recent events
func (h *Handler) GetStatus(c *fiber.Ctx) error {
	lastCheck := ""
	if t := h.Health.LastCheck(); !t.IsZero() {
		lastCheck = t.Format(time.RFC3339)
	}

	status := ServiceStatus{
		OS:              runtime.GOOS,
		Uptime:          h.SysInfo.GetUptime(),
		StartedAt:       h.SysInfo.StartedAt().Format(time.RFC3339),
		HeapMB:          h.SysInfo.GetMemoryUsage(),
		Goroutines:      h.SysInfo.GetGoroutines(),
		UpstreamURL:     h.Upstream.BaseURL(),
		UpstreamHealthy: h.Health.Healthy(),
		UpstreamBreaker: h.Upstream.BreakerState(),
		LastHealthCheck: lastCheck,
		Events:          GetEventLog(),
	}

	return c.JSON(status)
}

// GetEvents - Recent service events
func (h *Handler) GetEvents(c *fiber.Ctx) error {
	return c.JSON(GetEventLog())
}
