package main

import (
	"context"
	"flag"

	"github.com/hetulpatel/arbhunter/internal/config"
	"github.com/hetulpatel/arbhunter/internal/logging"
	"github.com/hetulpatel/arbhunter/internal/storage/sqlite"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	confirm := flag.Bool("yes", false, "confirm the destructive operation")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatalf("[sqlite] load config: %v", err)
	}
	logging.InitFromEnv()
	if !*confirm {
		logging.Fatalf("[sqlite] refusing to clear tables in %s without -yes", cfg.Storage.SQLitePath)
	}
	store, err := sqlite.Open(cfg.Storage.SQLitePath)
	if err != nil {
		logging.Fatalf("[sqlite] open: %v", err)
	}
	defer store.Close()

	if err := store.ClearTables(context.Background()); err != nil {
		logging.Fatalf("[sqlite] clear tables: %v", err)
	}
	logging.Infof("[sqlite] tables cleared at %s", store.Path())
}
