package services

import (
	"fmt"
	"runtime"
	"time"
)

// SysInfoService reports process-level runtime figures for the status
// endpoint. Host-level metrics belong to the platform, not the
// dashboard.
type SysInfoService struct {
	startedAt time.Time
}

func NewSysInfoService() *SysInfoService {
	return &SysInfoService{startedAt: time.Now()}
}

// GetUptime returns process uptime as a human-readable string.
func (s *SysInfoService) GetUptime() string {
	d := time.Since(s.startedAt)
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}

func (s *SysInfoService) StartedAt() time.Time {
	return s.startedAt
}

// GetMemoryUsage returns the heap in use, in megabytes.
func (s *SysInfoService) GetMemoryUsage() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.HeapInuse) / (1 << 20)
}

// GetGoroutines returns the current goroutine count.
func (s *SysInfoService) GetGoroutines() int {
	return runtime.NumGoroutine()
}
