// Package httpserver exposes the chat over WebSocket next to the admin endpoints.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"syncbridge/contract"
	"syncbridge/infrastructure/transport"
	"syncbridge/observability"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ConnServer runs a chat session on a connection until it ends.
type ConnServer interface {
	Serve(conn contract.Conn)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// SetupRoutes returns the mux serving /ws, /metrics and /healthz.
func SetupRoutes(log *slog.Logger, hub ConnServer, monitoring *observability.MonitoringManager, maxLineBytes int) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", WebSocketHandler(log, hub, maxLineBytes))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", HealthHandler(monitoring))
	return mux
}

// WebSocketHandler upgrades the request and runs a session on it,
// each text frame being one protocol line.
func WebSocketHandler(log *slog.Logger, hub ConnServer, maxLineBytes int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		hub.Serve(transport.NewWebSocketConn(conn, maxLineBytes))
	}
}

// HealthHandler reports the last telemetry snapshot.
func HealthHandler(monitoring *observability.MonitoringManager) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		stats := monitoring.GetLatest()
		stats.Status = "ok"
		_ = json.NewEncoder(w).Encode(stats)
	}
}

// CreateServer applies timeouts that leave upgraded connections alone.
func CreateServer(address string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Worker serves HTTP until its context ends, then shuts the server down.
type Worker struct {
	log             *slog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

func NewWorker(log *slog.Logger, server *http.Server, shutdownTimeout time.Duration) *Worker {
	return &Worker{log: log, server: server, shutdownTimeout: shutdownTimeout}
}

func (w *Worker) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		w.log.Info("Starting HTTP server", "address", w.server.Addr)
		if err := w.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err, ok := <-errChan:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
	defer cancel()
	if err := w.server.Shutdown(shutdownCtx); err != nil {
		w.log.Warn("HTTP server shutdown error", "error", err)
	}
	w.log.Info("HTTP server stopped")
	return nil
}
