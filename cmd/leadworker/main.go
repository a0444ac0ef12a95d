package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/acme/coldcall-agent/internal/app"
	"github.com/acme/coldcall-agent/internal/service/outcome"
	"github.com/acme/coldcall-agent/internal/telemetry"
	"github.com/acme/coldcall-agent/internal/worker/lead"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configPath := flag.String("config", getEnv("CONFIG_FILE", "configs/config.yaml"), "path to configuration file")
	flag.Parse()

	container, err := app.Build(ctx, *configPath)
	if err != nil {
		log.Fatalf("failed to bootstrap application: %v", err)
	}
	defer container.Close()

	if container.Kafka == nil {
		log.Fatalf("lead worker requires kafka to be enabled")
	}

	appCfg := container.Config.App
	appCfg.Name += "-lead-worker"
	shutdown, err := telemetry.Setup(ctx, container.Config.Telemetry, appCfg)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	if err := container.EnsureTopics(ctx); err != nil {
		log.Fatalf("failed to ensure kafka topics: %v", err)
	}

	cfg := container.Config.Kafka
	reader := container.Kafka.NewReader(cfg.OutcomeTopic, cfg.ConsumerGroupID)
	defer reader.Close()

	recorder := outcome.NewDirect(container.Repositories().Calls, container.Logger)
	worker := lead.New(reader, recorder, container.Logger)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("worker terminated: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
