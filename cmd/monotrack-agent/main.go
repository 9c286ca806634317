package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/vincentbai/monotrack/internal/config"
	"github.com/vincentbai/monotrack/internal/database"
	"github.com/vincentbai/monotrack/internal/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("MONOTRACK_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		log.Fatal("Failed to create application directory:", err)
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// Initialize and start server
	srv := server.NewServer(db, cfg)
	if err := srv.Start(); err != nil {
		log.Print(err)
	}
}
