package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"syncbridge/contract"
	"syncbridge/errors"
	"syncbridge/observability"
	"time"
)

// Supervisor keeps the background workers of the server alive.
// A worker that fails or panics is started again after restartInterval,
// one that returns nil is done. Cancelling the context given to Run, or
// calling Stop, ends every worker.
type Supervisor struct {
	log             *slog.Logger
	restartInterval time.Duration
	workers         []contract.Worker
	wg              sync.WaitGroup

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewSupervisor(log *slog.Logger, restartInterval time.Duration) *Supervisor {
	return &Supervisor{log: log, restartInterval: restartInterval}
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Run starts the added workers and blocks until all of them are done.
func (s *Supervisor) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	for _, worker := range s.workers {
		s.Start(ctx, worker)
	}
	s.wg.Wait()
}

// Start supervises one worker in its own goroutine.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	go s.supervise(ctx, worker, contract.GetWorkerName(worker))
}

func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Supervisor) supervise(ctx context.Context, worker contract.Worker, name string) {
	defer s.wg.Done()

	for restarts := 0; ctx.Err() == nil; restarts++ {
		err := runGuarded(ctx, worker)
		if ctx.Err() != nil {
			break
		}
		if err == nil {
			s.log.Info("Worker finished", "name", name)
			return
		}

		observability.WorkerRestarts.WithLabelValues(name).Inc()
		s.log.Warn("Worker failed, restarting", "name", name, "error", err, "restarts", restarts+1)
		if !s.pause(ctx) {
			break
		}
	}
	s.log.Info("Worker stopped", "name", name)
}

// runGuarded turns a panic of the worker into ErrWorkerPanic.
func runGuarded(ctx context.Context, worker contract.Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
	}()
	return worker.Run(ctx)
}

// pause waits restartInterval, it reports false when ctx ended first.
func (s *Supervisor) pause(ctx context.Context) bool {
	timer := time.NewTimer(s.restartInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
