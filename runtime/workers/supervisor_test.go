package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sharecircle/domain/chat"
	"sharecircle/mocks"
	"sharecircle/observability"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// runAsync starts the supervisor and returns a channel closed when Run returns.
func runAsync(ctx context.Context, sup *Supervisor) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()
	return done
}

func requireClosed(req *require.Assertions, done <-chan struct{}, msg string) {
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail(msg)
	}
}

func TestSupervisor_RestartsCrashedWorkers(t *testing.T) {
	tests := []struct {
		name  string
		crash func() error
	}{
		{"Panic", func() error { panic("boom") }},
		{"Error", func() error { return fmt.Errorf("connection reset") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			ctrl := gomock.NewController(t)
			metrics := observability.NewMetrics(prometheus.NewRegistry())
			worker := mocks.NewMockWorker(ctrl)

			// Given a worker crashing on every run
			var calls atomic.Int32
			worker.EXPECT().Run(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
				calls.Add(1)
				return tt.crash()
			}).AnyTimes()

			sup := NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug), 20*time.Millisecond, metrics)
			sup.Add(worker)
			done := runAsync(context.Background(), sup)

			// Then it is restarted and every restart is counted
			req.Eventually(func() bool { return calls.Load() >= 3 }, time.Second, 10*time.Millisecond)
			sup.Stop()
			requireClosed(req, done, "Supervisor should have stopped")
			req.GreaterOrEqual(testutil.ToFloat64(metrics.WorkerRestarts.WithLabelValues("MockWorker")), float64(2))
		})
	}
}

func TestSupervisor_FinishedWorkerIsNotRestarted(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	worker := mocks.NewMockWorker(ctrl)

	// Given a worker running only once
	worker.EXPECT().Run(gomock.Any()).Return(nil).Times(1)

	sup := NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug), 0, nil)
	sup.Add(worker)

	// Then Run returns on its own
	requireClosed(req, runAsync(context.Background(), sup), "Supervisor should have stopped after worker success")
}

func TestSupervisor_CrashDoesNotStopSiblings(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	crashing := mocks.NewMockWorker(ctrl)
	crashing.EXPECT().Run(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		panic("boom")
	}).AnyTimes()

	// Given a relay worker next to a crashing worker
	commands := make(chan chat.Command, 1)
	handler := mocks.NewMockCommandHandler(ctrl)
	handled := make(chan struct{})
	handler.EXPECT().Handle(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, cmd chat.Command) error {
		close(handled)
		return nil
	})

	sup := NewSupervisor(log, 10*time.Millisecond, nil)
	sup.Add(crashing, NewRelayWorker(log, commands, handler))
	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, sup)

	// When a command is queued
	commands <- chat.DisconnectCommand{Connection: "c1"}

	// Then the relay worker still handles it
	requireClosed(req, handled, "Relay worker should have handled the command")

	// And cancelling the parent stops everything
	cancel()
	requireClosed(req, done, "Supervisor should stop with its parent context")
}

func TestSupervisor_StopBeforeRun(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	worker := mocks.NewMockWorker(ctrl)
	worker.EXPECT().Run(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}).AnyTimes()

	sup := NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug), 0, nil)
	sup.Add(worker)

	// When Stop is called first
	sup.Stop()

	// Then Run does not block
	requireClosed(req, runAsync(context.Background(), sup), "Run should return once stopped")
}
