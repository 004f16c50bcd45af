package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/procuraduria/docket/internal/config"
	"github.com/procuraduria/docket/internal/notifier"
	"github.com/procuraduria/docket/pkg/notifications"
	"github.com/procuraduria/docket/pkg/notifications/backends"
)

func main() {
	configFile := flag.String("config", "", "Path to HCL configuration file")
	flag.Parse()

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "docket-notify",
		Level: hclog.LevelFromString(os.Getenv("DOCKET_LOG_LEVEL")),
	})

	if *configFile == "" {
		logger.Error("missing required -config flag")
		os.Exit(1)
	}

	cfg, err := config.NewConfig(*configFile)
	if err != nil {
		logger.Error("failed to load configuration", "path", *configFile, "error", err)
		os.Exit(1)
	}
	nc := cfg.Notifications

	registry, err := backends.NewRegistry(cfg.Backends, logger)
	if err != nil {
		logger.Error("failed to initialize backend registry", "error", err)
		os.Exit(1)
	}
	if len(registry.GetAll()) == 0 {
		logger.Error("no backends initialized")
		os.Exit(1)
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(nc.Brokers...),
		kgo.ConsumerGroup(nc.ConsumerGroup),
		kgo.ConsumeTopics(nc.Topic),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		logger.Error("failed to create consumer", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	publisher, err := notifications.NewPublisher(notifications.PublisherConfig{
		Brokers: nc.Brokers,
		Topic:   nc.Topic,
	})
	if err != nil {
		logger.Error("failed to create retry publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	dlq, err := notifications.NewDLQPublisher(notifications.DLQPublisherConfig{
		Brokers: nc.Brokers,
		Topic:   nc.DLQTopic,
	})
	if err != nil {
		logger.Error("failed to create DLQ publisher", "error", err)
		os.Exit(1)
	}
	defer dlq.Close()

	retry := notifications.NewRetryHandler(notifications.DefaultRetryConfig(), publisher, dlq)
	worker := notifier.NewWorker(registry, retry, logger.Named("worker"))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting notification worker",
		"backends", registry.GetBackendNames(),
		"topic", nc.Topic,
		"group", nc.ConsumerGroup,
	)
	worker.Run(ctx, client)
	logger.Info("notification worker stopped")
}
