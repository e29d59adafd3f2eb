package observability

import (
	"log/slog"
	"sync"
	"time"
)

// ChatStats is the latest snapshot collected by the telemetry worker.
type ChatStats struct {
	Sessions     int       `json:"sessions"`
	Connections  int       `json:"connections"`
	HistoryLines int       `json:"history_lines"`
	RSSBytes     uint64    `json:"rss_bytes"`
	CPUPercent   float64   `json:"cpu_percent"`
	AllocMemMb   uint64    `json:"alloc_mem_mb"`
	NumGC        uint32    `json:"num_gc"`
	Status       string    `json:"status"`
	CollectedAt  time.Time `json:"collected_at"`
}

// MonitoringManager keeps the last snapshot for /healthz and mirrors it into the gauges.
type MonitoringManager struct {
	log         *slog.Logger
	mu          sync.RWMutex
	latestStats ChatStats
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	return &MonitoringManager{log: log}
}

func (mm *MonitoringManager) Update(stats ChatStats) {
	mm.mu.Lock()
	mm.latestStats = stats
	mm.mu.Unlock()

	ActiveSessions.Set(float64(stats.Sessions))
	LiveConnections.Set(float64(stats.Connections))
	HistoryLines.Set(float64(stats.HistoryLines))
	ProcessRSSBytes.Set(float64(stats.RSSBytes))
	ProcessCPUPercent.Set(stats.CPUPercent)

	mm.log.Debug("Stats updated",
		"sessions", stats.Sessions,
		"connections", stats.Connections,
		"history_lines", stats.HistoryLines,
		"rss_bytes", stats.RSSBytes,
		"cpu_percent", stats.CPUPercent,
	)
}

func (mm *MonitoringManager) GetLatest() ChatStats {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	return mm.latestStats
}
