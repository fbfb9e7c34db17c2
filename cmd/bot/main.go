package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"fences-bot/domain"
	"fences-bot/internal"
	"fences-bot/repositories"
	"fences-bot/runtime"
	"fences-bot/runtime/workers"
	"fences-bot/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
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
		fmt.Fprintf(os.Stderr, "Bot terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the lifecycle, and
// centralizes error reporting, so deferred cleanup always executes
// before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.SlogLevel()}))

	initialExpiration, err := config.InitialExpiration()
	if err != nil {
		return exitConfig, err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Store seeding on first start
	repo := repositories.NewDirectoryRepository(db, logger)
	var initialAdmin *domain.Member
	if config.AdminUsername != "" {
		initialAdmin = &domain.Member{Username: config.AdminUsername, Label: config.AdminLabel, IsAdmin: true}
	}
	if err := repo.Seed(initialAdmin, initialExpiration); err != nil {
		return exitRuntime, fmt.Errorf("store seeding failed: %w", err)
	}

	// 4. Engine wiring
	service := services.NewDirectoryService(repo, logger, config.DatetimePattern, config.AliasByteLimit)
	sessions := runtime.NewRegistry()
	console := newConsole(logger)
	dispatcher := runtime.NewDispatcher(service, console, logger)
	expired := &atomic.Bool{}
	router := runtime.NewRouter(service, sessions, dispatcher, expired, logger, config.AliasByteLimit)

	// 5. Background workers under supervision
	supervisor := workers.NewSupervisor(logger)
	supervisor.Add(
		workers.NewExpirationMonitor(service, expired, logger),
		workers.NewSessionJanitor(sessions, config.SessionTTL, logger),
	)
	done := make(chan struct{})
	go func() {
		supervisor.Run(ctx)
		close(done)
	}()

	// 6. Console transport loop (development adapter; a real chat
	// transport plugs into the same Router and Transport contracts)
	console.loop(ctx, router)

	cancel()
	<-done
	logger.Info("Bye")
	return exitOK, nil
}
