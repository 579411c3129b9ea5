package workers

import (
	"log/slog"
	"os"
	"sharecircle/mocks"
	"sharecircle/observability"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/process"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestHeartbeatWorker_Beat(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	registry := mocks.NewMockIRegistry(ctrl)
	monitoring := observability.NewMonitoringManager(log)
	worker := NewHeartbeatWorker(log, registry, monitoring,
		observability.NewMetrics(prometheus.NewRegistry()), time.Second)

	p, err := process.NewProcess(int32(os.Getpid()))
	req.NoError(err)

	// Given three connections spread over two rooms
	registry.EXPECT().Count().Return(3, 2).Times(1)

	// When a sample is taken
	stats := worker.Beat(p)

	// Then relay and process figures are published
	req.Equal(3, stats.Connections)
	req.Equal(2, stats.Rooms)
	req.NotZero(stats.RSSBytes)
	req.Equal(stats, monitoring.GetLatest())
}
