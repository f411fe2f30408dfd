package main

import (
	"context"
	"os/signal"
	"syscall"

	"bookstore/internal/config"
	"bookstore/internal/db"
	"bookstore/internal/events"
	"bookstore/internal/logging"
	"bookstore/internal/outbox"
	"go.uber.org/zap"
)

// relay publishes outbox rows to Kafka. Run it instead of the in-process relay
// when the api is scaled out.
func main() {
	cfg := config.FromEnv()
	logger, err := logging.New("relay", cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if len(cfg.KafkaBrokers) == 0 {
		logger.Fatal("KAFKA_BROKERS is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	publisher := events.NewKafkaPublisher(cfg.KafkaBrokers)
	defer publisher.Close()

	relay := events.NewRelay(outbox.NewStore(pool), publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize, logger)
	logger.Info("relay started", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.OrderEventsTopic))
	if err := relay.Run(ctx); err != nil {
		logger.Fatal("relay stopped", zap.Error(err))
	}
	logger.Info("relay stopped")
}
