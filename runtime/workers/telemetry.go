package workers

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"syncbridge/contract"
	"syncbridge/observability"
	"time"

	"github.com/shirou/gopsutil/process"
)

// TelemetryWorker samples the chat counters and the process footprint every metricInterval.
type TelemetryWorker struct {
	log            *slog.Logger
	metricInterval time.Duration
	stats          contract.IChatStats
	monitoring     *observability.MonitoringManager
}

func NewTelemetryWorker(log *slog.Logger, metricInterval time.Duration,
	stats contract.IChatStats, monitoring *observability.MonitoringManager) *TelemetryWorker {
	return &TelemetryWorker{
		log:            log,
		metricInterval: metricInterval,
		stats:          stats,
		monitoring:     monitoring,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	w.collect(p)
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping telemetry")
			return nil
		case <-ticker.C:
			w.collect(p)
		}
	}
}

func (w *TelemetryWorker) collect(p *process.Process) {
	stats := observability.ChatStats{
		Sessions:     w.stats.Sessions(),
		Connections:  w.stats.Live(),
		HistoryLines: w.stats.HistoryLen(),
		CollectedAt:  time.Now().UTC(),
	}

	rss, cpu, status, err := selfStats(p)
	if err != nil {
		w.log.Debug("Failed to collect self stats", "error", err)
	} else {
		stats.RSSBytes, stats.CPUPercent, stats.Status = rss, cpu, status
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	stats.AllocMemMb = m.Alloc / 1024 / 1024
	stats.NumGC = m.NumGC

	w.monitoring.Update(stats)
}

// selfStats retrieves memory, CPU and OS status for the given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}
	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
