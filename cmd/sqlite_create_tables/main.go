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
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatalf("[sqlite] load config: %v", err)
	}
	logging.InitFromEnv()
	store, err := sqlite.Open(cfg.Storage.SQLitePath)
	if err != nil {
		logging.Fatalf("[sqlite] open: %v", err)
	}
	defer store.Close()

	if err := store.CreateTables(context.Background()); err != nil {
		logging.Fatalf("[sqlite] create tables: %v", err)
	}
	logging.Infof("[sqlite] tables created at %s", store.Path())
}
