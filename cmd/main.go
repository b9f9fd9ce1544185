package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"support-relay/infrastructure/ws"
	"support-relay/internal"
	"support-relay/repositories"
	"support-relay/runtime"
	"support-relay/runtime/workers"
	"support-relay/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the websocket hub and workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := internal.NewLogger(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	// Defer will be executed before run() returns anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Core wiring
	registry := runtime.NewRegistry()
	messages := repositories.NewMessageRepository(db, log, config.LimitMessages)
	users := repositories.NewUserRepository(db)

	hub := ws.NewHub(log, config.ConnectionBufferSize)
	lifecycle := runtime.NewLifecycle(log, registry, hub)
	relay := services.NewRelayService(log, messages, registry, hub)
	discovery := services.NewDiscoveryService(messages, users, registry)
	gateway := ws.NewGateway(log, hub, lifecycle, relay, discovery, registry, config.ReadLimitBytes)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Background workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewTelemetryWorker(log, config.TelemetryInterval, registry),
		workers.NewStoreGCWorker(log, db, config.StoreGCInterval),
	)
	go sup.Run(ctx)

	if config.InspectPort != nil {
		internal.StartInspectServer(db, *config.InspectPort, log, func() map[string]any {
			snapshot := registry.Snapshot()
			return map[string]any{"connections": len(snapshot)}
		})
	}

	// 6. HTTP server with the websocket endpoint
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gateway.Handle)
	server := &http.Server{Addr: address, Handler: mux}

	// Use an error channel to capture ListenAndServe() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting relay server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	hub.Close()
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
