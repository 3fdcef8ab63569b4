package main

import (
	"log"
	"os"

	"github.com/nexuslabs/nexus/internal/api"
	"github.com/nexuslabs/nexus/internal/compute"
	"github.com/nexuslabs/nexus/internal/config"
	"github.com/nexuslabs/nexus/internal/engine"
	"github.com/nexuslabs/nexus/internal/store"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	logger.Info("nexus: starting",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"workers", cfg.Engine.Workers,
	)

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	eng, err := engine.New(cfg.Engine, logger)
	if err != nil {
		log.Fatalf("failed to build engine: %v", err)
	}
	if err := eng.Start(); err != nil {
		log.Fatalf("failed to start engine: %v", err)
	}

	srv := api.NewServer(cfg.ListenAddr, db, compute.DefaultRegistry(), eng, logger)

	if err := srv.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
