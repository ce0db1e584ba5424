package main

import (
	"fmt"
	"log"
	"os"

	"github.com/semclone/pypistats-tracker/internal/api"
	"github.com/semclone/pypistats-tracker/internal/config"
	"github.com/semclone/pypistats-tracker/internal/storage"
	"github.com/semclone/pypistats-tracker/internal/storage/jsonfile"
	"github.com/semclone/pypistats-tracker/internal/storage/postgres"
	"github.com/semclone/pypistats-tracker/internal/storage/sqlite"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	snapshots := jsonfile.New(cfg.OutputFile)

	// Run history is optional for the read API
	var history storage.History
	switch cfg.StorageType {
	case "postgres":
		history, err = postgres.NewPostgresHistory(cfg.PostgresURL)
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL history: %v", err)
		}
	case "sqlite":
		history, err = sqlite.NewSQLiteHistory(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite history: %v", err)
		}
	}
	if history != nil {
		defer history.Close()
	}

	// Initialize handler
	handler := api.NewHandler(snapshots, history)

	// Setup routes
	router := api.SetupRoutes(handler)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	fmt.Printf("Starting API server on %s\n", addr)
	fmt.Printf("Snapshot file: %s\n", cfg.OutputFile)

	if err := router.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}
