package workers

import (
	"context"
	"log/slog"
	"syncbridge/observability"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestChannelCapacityWorker_ReportsLengthAndCapacity(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Given a buffered channel holding 3 of 8 elements
	ch := make(chan int, 8)
	ch <- 1
	ch <- 2
	ch <- 3
	worker := NewChannelCapacityWorker(slog.Default(), 5*time.Millisecond,
		NamedChannel{Name: "test_sampled", Channel: ch})

	// When the worker runs
	go func() { _ = worker.Run(ctx) }()

	// Then both gauges are set
	req.Eventually(func() bool {
		return testutil.ToFloat64(observability.ChannelLength.WithLabelValues("test_sampled")) == 3
	}, time.Second, 5*time.Millisecond)
	req.Equal(float64(8), testutil.ToFloat64(observability.ChannelCapacity.WithLabelValues("test_sampled")))
}

func TestChannelCapacityWorker_SkipsNonChannels(t *testing.T) {
	req := require.New(t)
	worker := NewChannelCapacityWorker(slog.Default(), time.Second,
		NamedChannel{Name: "test_not_a_channel", Channel: 42})

	worker.sample()

	req.Equal(float64(0), testutil.ToFloat64(observability.ChannelCapacity.WithLabelValues("test_not_a_channel")))
}

func TestChannelCapacityWorker_StopsOnCancel(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	worker := NewChannelCapacityWorker(slog.Default(), time.Millisecond)

	cancel()

	req.NoError(worker.Run(ctx))
}
