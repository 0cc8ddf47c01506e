package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/xtding233/progression-core/internal/config"
	"github.com/xtding233/progression-core/internal/server"
	"github.com/xtding233/progression-core/internal/telemetry"
)

func main() {
	cfg, err := config.LoadServerEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	log.SetPrefix("[PROGRESSION] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, telemetry.Settings{
		ServiceName: "progression",
		Endpoint:    cfg.OTelEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	srv, err := server.New(ctx, cfg)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	if err := srv.Serve(ctx); err != nil {
		log.Printf("failed to serve: %v", err)
		stop()
		os.Exit(1)
	}
}
