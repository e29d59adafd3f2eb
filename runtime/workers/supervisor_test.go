package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"syncbridge/contract"
	"syncbridge/errors"
	"syncbridge/mocks"
	"syncbridge/observability"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSupervisor_RestartOnPanic(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	workerMock := mocks.NewMockWorker(ctrl)

	// Given a worker panicking on every run
	var calls atomic.Int32
	workerMock.EXPECT().
		Run(gomock.Any()).
		DoAndReturn(func(ctx context.Context) error {
			calls.Add(1)
			panic("boom")
		}).
		AnyTimes()

	sup := NewSupervisor(log, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sup.Add(workerMock).Run(ctx)
		close(done)
	}()

	// Then the supervisor keeps restarting it and counts the restarts
	req.Eventually(func() bool { return calls.Load() >= 3 }, time.Second, 10*time.Millisecond)
	restarts := observability.WorkerRestarts.WithLabelValues(contract.GetWorkerName(workerMock))
	req.GreaterOrEqual(testutil.ToFloat64(restarts), float64(2))

	// When the context is cancelled
	cancel()

	// Then Run returns
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Supervisor should have stopped after cancellation")
	}
}

func TestSupervisor_StopOnSuccess(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	workerMock := mocks.NewMockWorker(ctrl)

	// Given a worker running only once
	workerMock.EXPECT().
		Run(gomock.Any()).
		Return(nil).
		Times(1)

	sup := NewSupervisor(log, 20*time.Millisecond)

	done := make(chan struct{})
	go func() {
		sup.Add(workerMock).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
		// Then the supervisor saw a clean exit and never restarted it
	case <-time.After(500 * time.Millisecond):
		req.Fail("Supervisor should have stopped after worker success")
	}
}

func TestSupervisor_StopCancelsWorkers(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	workerMock := mocks.NewMockWorker(ctrl)

	started := make(chan struct{})
	// Given a worker blocking until its context ends
	workerMock.EXPECT().
		Run(gomock.Any()).
		DoAndReturn(func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		}).
		Times(1)

	sup := NewSupervisor(log, 20*time.Millisecond)
	done := make(chan struct{})
	go func() {
		sup.Add(workerMock).Run(context.Background())
		close(done)
	}()
	<-started

	// When Stop is called
	sup.Stop()

	// Then the worker is not restarted and Run returns
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Supervisor should have stopped")
	}
}

func TestRunGuarded_WrapsPanicValue(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	workerMock := mocks.NewMockWorker(ctrl)
	workerMock.EXPECT().
		Run(gomock.Any()).
		DoAndReturn(func(ctx context.Context) error { panic("disk gone") })

	err := runGuarded(context.Background(), workerMock)

	req.ErrorIs(err, errors.ErrWorkerPanic)
	req.Contains(err.Error(), "disk gone")
}

func TestSupervisor_CancelledBeforeStartNeverRuns(t *testing.T) {
	ctrl := gomock.NewController(t)
	workerMock := mocks.NewMockWorker(ctrl)
	// Given a context already cancelled, Run must not be called at all
	workerMock.EXPECT().Run(gomock.Any()).Times(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug), time.Millisecond).Add(workerMock).Run(ctx)
}
