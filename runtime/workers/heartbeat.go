package workers

import (
	"context"
	"log/slog"
	"os"
	"sharecircle/contract"
	"sharecircle/observability"
	"time"

	"github.com/shirou/gopsutil/process"
)

const defaultHeartbeatInterval = 15 * time.Second

// HeartbeatWorker periodically samples the process and the relay and
// publishes the figures to the monitoring snapshot and prometheus.
type HeartbeatWorker struct {
	log        *slog.Logger
	registry   contract.IRegistry
	monitoring *observability.MonitoringManager
	metrics    *observability.Metrics
	interval   time.Duration
}

func NewHeartbeatWorker(
	log *slog.Logger,
	registry contract.IRegistry,
	monitoring *observability.MonitoringManager,
	metrics *observability.Metrics,
	interval time.Duration,
) *HeartbeatWorker {
	if interval <= 0 {
		interval = defaultHeartbeatInterval
	}
	return &HeartbeatWorker{
		log:        log,
		registry:   registry,
		monitoring: monitoring,
		metrics:    metrics,
		interval:   interval,
	}
}

// Run samples every interval until the context is done.
func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Beat(p)
		}
	}
}

// Beat takes one sample. Process stats are best effort.
func (w *HeartbeatWorker) Beat(p *process.Process) observability.MonitoringStats {
	rss, cpu, err := getSelfStats(p)
	if err != nil {
		w.log.Error("Failed to collect self stats", "error", err)
	}
	connections, rooms := w.registry.Count()
	stats := w.monitoring.Update(connections, rooms, rss, cpu)
	w.metrics.RecordStats(stats)
	return stats
}

// getSelfStats retrieves memory and CPU usage for the given process.
func getSelfStats(p *process.Process) (uint64, float64, error) {
	if p == nil {
		return 0, 0, nil
	}
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return memInfo.RSS, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
