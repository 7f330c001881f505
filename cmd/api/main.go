package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"regact/adapters/httpapi"
	"regact/adapters/memstore"
	"regact/adapters/methods"
	"regact/adapters/postgres"
	"regact/app"
	"regact/internal/config"
	"regact/ports"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// Pick the result store: Postgres when configured, in-memory otherwise.
	var store ports.ResultStorePort
	if appConfig.Database.Enabled() {
		db, err := postgres.Open(ctx, appConfig.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		pgStore := postgres.NewResultStore(db)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to ensure database schema: %v", err)
		}
		store = pgStore
		log.Println("Using Postgres result store")
	} else {
		store = memstore.New()
		log.Println("No DATABASE_URL configured, using in-memory result store")
	}

	runService := app.NewRunService(store, appConfig.Scoring.CodeVersion)

	defaults := methods.DefaultOptions()
	defaults.Seed = appConfig.Scoring.Seed
	defaults.Times = appConfig.Scoring.Times
	defaults.MinSize = appConfig.Scoring.MinSize
	defaults.Workers = appConfig.Scoring.Workers

	apiServer := httpapi.NewServer(httpapi.Config{
		Defaults:          defaults,
		MaxConcurrentRuns: appConfig.Server.MaxConcurrentRuns,
		Version:           appConfig.Scoring.CodeVersion,
	}, runService)

	// Start pprof server for performance profiling
	if appConfig.Profiling.Enabled {
		go func() {
			log.Printf("Performance profiling server starting on :%s", appConfig.Profiling.Port)
			if err := http.ListenAndServe(":"+appConfig.Profiling.Port, nil); err != nil {
				log.Printf("pprof server failed: %v", err)
			}
		}()
	}

	server := &http.Server{
		Addr:         ":" + appConfig.Server.Port,
		Handler:      apiServer.Handler(),
		ReadTimeout:  appConfig.Server.ReadTimeout,
		WriteTimeout: appConfig.Server.WriteTimeout,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("🚀 Starting regact API server on port %s", appConfig.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, appConfig.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
