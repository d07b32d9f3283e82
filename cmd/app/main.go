package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"PulseForge/internal/di"
	"PulseForge/pkg/config"
	"PulseForge/pkg/util"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	mode := flag.String("mode", "", "once or serve; overrides the config file")
	asOf := flag.String("as-of", "", "score this calendar day (YYYY-MM-DD) in once mode")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *mode != "" {
		cfg.Mode = *mode
		if err := cfg.Validate(); err != nil {
			log.Fatalf("invalid -mode %q: %v", *mode, err)
		}
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}
	if *asOf != "" {
		day, ok := util.ParseDate(*asOf)
		if !ok {
			log.Fatalf("invalid -as-of %q: want YYYY-MM-DD", *asOf)
		}
		app.SetAsOf(day)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Printf("app error: %v", err)
		stop()
		os.Exit(1)
	}
}
