package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syncbridge/contract"
	"syncbridge/domain"
	"syncbridge/infrastructure/grpc/server"
	"syncbridge/infrastructure/httpserver"
	"syncbridge/infrastructure/storage"
	"syncbridge/internal"
	"syncbridge/moderation"
	"syncbridge/observability"
	"syncbridge/runtime"
	"syncbridge/runtime/workers"
	"syncbridge/sink"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component, blocks until SIGINT/SIGTERM and tears everything down.
// Deferred cleanups such as closing badger run before main exits.
func run() (int, error) {
	// 1. Configuration & Logger
	config, err := internal.LoadConfig()
	if err != nil {
		return exitConfig, err
	}
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Sinks, the journal only when a path is configured
	events := make(chan domain.Entry, config.EventBufferSize)
	sinks := []contract.EventSink{sink.NewMetricsSink()}

	if config.BadgerFilepath != "" {
		db, err := badger.Open(badgerOptions(config.BadgerFilepath, log))
		if err != nil {
			return exitRuntime, fmt.Errorf("database opening failed: %w", err)
		}
		defer func() {
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		}()
		sinks = append(sinks, sink.NewJournalSink(storage.NewJournalRepository(db, log), log))

		if config.InspectPort != 0 {
			log.Info("Journal inspector available", "url", fmt.Sprintf("http://localhost:%d/inspect?prefix=line:", config.InspectPort))
			database.StartDebugServer(db, config.InspectPort, "/inspect", storage.JournalMapper)
		}
	}

	// 3. Hub & listener
	opts := []runtime.HubOption{runtime.WithDrainTimeout(config.DrainTimeout)}
	if words := config.Words(); len(words) > 0 {
		moderator, err := moderation.NewModerator(words, charReplacement, log)
		if err != nil {
			return exitConfig, fmt.Errorf("moderation setup failed: %w", err)
		}
		opts = append(opts, runtime.WithCensor(moderator))
	}
	hub := runtime.NewHub(log, events, config.OutboundQueueSize, opts...)

	listener := runtime.NewListener(log, hub, config.Address(), config.MaxLineBytes)
	if err = listener.Bind(); err != nil {
		return exitRuntime, err
	}
	if config.AnnounceStartup {
		hub.Announce(domain.StartupLine(time.Now()))
	}

	// 4. Supervised workers
	monitoring := observability.NewMonitoringManager(log)
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewEventFanout(log, events, config.SinkTimeout, sinks...),
		workers.NewTelemetryWorker(log, config.MetricInterval, hub, monitoring),
		workers.NewChannelCapacityWorker(log, config.MetricInterval,
			workers.NamedChannel{Name: "events", Channel: events}),
	)

	var healthWorker *server.HealthWorker
	if config.GRPCHealthPort != 0 {
		healthWorker = server.NewHealthWorker(log, fmt.Sprintf("%s:%d", config.Host, config.GRPCHealthPort))
		if err = healthWorker.Bind(); err != nil {
			return exitRuntime, err
		}
		sup.Add(healthWorker)
	}
	if config.HTTPPort != 0 {
		routes := httpserver.SetupRoutes(log, hub, monitoring, config.MaxLineBytes)
		httpServer := httpserver.CreateServer(fmt.Sprintf("%s:%d", config.Host, config.HTTPPort), routes)
		sup.Add(httpserver.NewWorker(log, httpServer, config.ShutdownTimeout))
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	supDone := make(chan struct{})
	go func() {
		sup.Run(workerCtx)
		close(supDone)
	}()

	listenerDone := make(chan error, 1)
	go func() { listenerDone <- listener.Run(ctx) }()

	// 5. Wait for Stop or Error
	code := exitOK
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		err = <-listenerDone
	case err = <-listenerDone:
		if err == nil {
			err = fmt.Errorf("chat listener stopped unexpectedly")
		}
	}
	if err != nil {
		log.Error("Chat listener failed", "error", err)
		code = exitRuntime
	}

	// 6. Final Cleanup: sessions first so their departures still reach the sinks
	if healthWorker != nil {
		healthWorker.NotServing()
	}
	if err := hub.Shutdown(config.ShutdownTimeout); err != nil {
		log.Warn("Sessions left behind", "error", err)
	}
	cancelWorkers()
	<-supDone
	log.Info("Program stopped cleanly")

	return code, err
}

func badgerOptions(path string, log *slog.Logger) badger.Options {
	options := badger.DefaultOptions(path)
	if log.Enabled(context.Background(), slog.LevelDebug) {
		return options.WithLoggingLevel(badger.INFO)
	}
	return options.WithLoggingLevel(badger.WARNING)
}
