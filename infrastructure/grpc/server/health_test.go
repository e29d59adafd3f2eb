package server

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestHealthWorker_ServingThenNotServing(t *testing.T) {
	req := require.New(t)
	worker := NewHealthWorker(logs.GetLoggerFromLevel(slog.LevelDebug), "127.0.0.1:0")
	req.NoError(worker.Bind())
	address := worker.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	req.NoError(err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	// Then the chat service reports SERVING while running
	req.Eventually(func() bool {
		callCtx, callCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer callCancel()
		resp, err := client.Check(callCtx, &healthpb.HealthCheckRequest{Service: ChatService})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 20*time.Millisecond)

	// When shutdown begins
	worker.NotServing()

	// Then the status flips before the server stops
	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ChatService})
	req.NoError(err)
	req.Equal(healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	cancel()
	req.NoError(<-done)
}
