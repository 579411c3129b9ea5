package observability

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// MonitoringStats is the snapshot published by the heartbeat
type MonitoringStats struct {
	Connections int       `json:"connections"`
	Rooms       int       `json:"rooms"`
	Delivered   uint64    `json:"delivered"`
	Failed      uint64    `json:"failed"`
	RSSBytes    uint64    `json:"rss_bytes"`
	CPUPercent  float64   `json:"cpu_percent"`
	AllocMemMb  uint64    `json:"alloc_mem_mb"`
	NumGC       uint32    `json:"num_gc"`
	Goroutines  int       `json:"goroutines"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MonitoringManager keeps the latest stats for the health endpoint
type MonitoringManager struct {
	log         *slog.Logger
	mu          sync.RWMutex
	latestStats MonitoringStats

	// Cumulated since start
	Delivered uint64
	Failed    uint64
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	return &MonitoringManager{log: log}
}

func (mm *MonitoringManager) IncrDelivered(n int) {
	atomic.AddUint64(&mm.Delivered, uint64(n))
}

func (mm *MonitoringManager) IncrFailed(n int) {
	atomic.AddUint64(&mm.Failed, uint64(n))
}

// Update merges process and relay figures into a new snapshot
func (mm *MonitoringManager) Update(connections, rooms int, rss uint64, cpu float64) MonitoringStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	mm.mu.Lock()
	defer mm.mu.Unlock()

	mm.latestStats = MonitoringStats{
		Connections: connections,
		Rooms:       rooms,
		Delivered:   atomic.LoadUint64(&mm.Delivered),
		Failed:      atomic.LoadUint64(&mm.Failed),
		RSSBytes:    rss,
		CPUPercent:  cpu,
		AllocMemMb:  m.Alloc / 1024 / 1024,
		NumGC:       m.NumGC,
		Goroutines:  runtime.NumGoroutine(),
		UpdatedAt:   time.Now().UTC(),
	}

	mm.log.Debug("Stats updated",
		"connections", connections,
		"rooms", rooms,
		"rss_bytes", rss,
		"mem_mb", mm.latestStats.AllocMemMb,
	)
	return mm.latestStats
}

func (mm *MonitoringManager) GetLatest() MonitoringStats {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.latestStats
}
