package main

import (
	"flag"
	"log"
	"os"

	"RateCast/internal/di"
	"RateCast/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	log.Printf("ratecast starting env=%s backend=%s series=%v",
		cfg.Environment, cfg.Backend.Type, cfg.RateFeed.Series)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run blocks until SIGINT/SIGTERM, then shuts the pipeline down.
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
