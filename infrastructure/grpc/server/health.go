package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	grpcsdk "github.com/mama165/sdk-go/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ChatService is the service name reported next to the overall status.
const ChatService = "syncbridge.Chat"

// HealthWorker serves the standard grpc.health.v1 service.
// Status is SERVING while the worker runs and NOT_SERVING once shutdown begins.
type HealthWorker struct {
	log     *slog.Logger
	address string
	health  *health.Server

	mu       sync.Mutex
	listener net.Listener
}

func NewHealthWorker(log *slog.Logger, address string) *HealthWorker {
	return &HealthWorker{log: log, address: address, health: health.NewServer()}
}

func (w *HealthWorker) Bind() error {
	ln, err := net.Listen("tcp", w.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", w.address, err)
	}
	w.mu.Lock()
	w.listener = ln
	w.mu.Unlock()
	return nil
}

func (w *HealthWorker) Addr() net.Addr {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.listener == nil {
		return nil
	}
	return w.listener.Addr()
}

// NotServing flips every status, used as soon as the process starts shutting down.
func (w *HealthWorker) NotServing() {
	w.health.Shutdown()
}

func (w *HealthWorker) Run(ctx context.Context) error {
	w.mu.Lock()
	ln := w.listener
	w.listener = nil
	w.mu.Unlock()
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", w.address); err != nil {
			return fmt.Errorf("failed to listen on %s: %w", w.address, err)
		}
	}

	s := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcsdk.UnaryLoggingInterceptor(w.log)))
	healthpb.RegisterHealthServer(s, w.health)
	w.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	w.health.SetServingStatus(ChatService, healthpb.HealthCheckResponse_SERVING)

	errChan := make(chan error, 1)
	go func() {
		w.log.Info("Starting gRPC health server", "address", ln.Addr().String())
		errChan <- s.Serve(ln)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	w.health.Shutdown()
	s.GracefulStop()
	w.log.Info("gRPC health server stopped")
	return nil
}
