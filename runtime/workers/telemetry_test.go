package workers

import (
	"context"
	"log/slog"
	"syncbridge/mocks"
	"syncbridge/observability"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestTelemetryWorker_Collect(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	stats := mocks.NewMockIChatStats(ctrl)
	monitoring := observability.NewMonitoringManager(log)

	// Given a hub with two sessions, three connections and five history lines
	stats.EXPECT().Sessions().Return(2).AnyTimes()
	stats.EXPECT().Live().Return(3).AnyTimes()
	stats.EXPECT().HistoryLen().Return(5).AnyTimes()

	worker := NewTelemetryWorker(log, time.Hour, stats, monitoring)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	// When the worker starts
	go func() { done <- worker.Run(ctx) }()

	// Then a first snapshot is published right away
	req.Eventually(func() bool {
		return !monitoring.GetLatest().CollectedAt.IsZero()
	}, time.Second, 10*time.Millisecond)

	latest := monitoring.GetLatest()
	req.Equal(2, latest.Sessions)
	req.Equal(3, latest.Connections)
	req.Equal(5, latest.HistoryLines)
	req.NotZero(latest.RSSBytes)

	cancel()
	req.NoError(<-done)
}
