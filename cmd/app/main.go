package main

import (
	"flag"
	"log"
	"os"

	"MarinePulse/internal/di"
	"MarinePulse/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s interval=%s threshold=%.0f metric=%s",
		cfg.Environment, cfg.Scheduler.PollInterval, cfg.Congestion.Threshold, cfg.Congestion.Metric)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
