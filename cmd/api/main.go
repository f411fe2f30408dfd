package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"bookstore/internal/config"
	"bookstore/internal/db"
	"bookstore/internal/events"
	"bookstore/internal/httpserver"
	"bookstore/internal/logging"
	"bookstore/internal/outbox"
	"bookstore/internal/payment"
	"bookstore/internal/refcode"
	authorrepo "bookstore/internal/repository/author"
	bookrepo "bookstore/internal/repository/book"
	cartrepo "bookstore/internal/repository/cart"
	categoryrepo "bookstore/internal/repository/category"
	orderrepo "bookstore/internal/repository/order"
	reviewrepo "bookstore/internal/repository/review"
	wishlistrepo "bookstore/internal/repository/wishlist"
	cartsvc "bookstore/internal/service/cart"
	catalogsvc "bookstore/internal/service/catalog"
	"bookstore/internal/service/checkout"
	ordersvc "bookstore/internal/service/order"
	reviewsvc "bookstore/internal/service/review"
	wishlistsvc "bookstore/internal/service/wishlist"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New("api", cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	bookRepo := bookrepo.NewPostgres(dbpool, logger)
	catalogService := catalogsvc.New(bookRepo, categoryrepo.NewPostgres(dbpool), authorrepo.NewPostgres(dbpool))
	cartService := cartsvc.New(cartrepo.NewPostgres(dbpool), bookRepo)
	orderService := ordersvc.New(orderrepo.NewPostgres(dbpool), ordersvc.NewPostgresTransactor(dbpool), cfg.OrderEventsTopic, logger)
	reviewService := reviewsvc.New(reviewrepo.NewPostgres(dbpool), bookRepo)
	wishlistService := wishlistsvc.New(wishlistrepo.NewPostgres(dbpool), bookRepo)

	processor := payment.NewStripeProcessor(cfg.StripeSecretKey, nil)
	orchestrator := checkout.NewOrchestrator(
		payment.NewVerifier(cfg.StripeWebhookSecret, cfg.StripeWebhookTolerance),
		payment.NewResolver(processor),
		checkout.NewPostgresTransactor(dbpool),
		checkout.NewMaterializer(refcode.NewGenerator(nil), logger),
		checkout.Config{EventsTopic: cfg.OrderEventsTopic, EnforceCartOwner: cfg.EnforceCartOwner},
		checkout.NewMetrics(prometheus.DefaultRegisterer),
		logger,
	)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Catalog:            catalogService,
		Cart:               cartService,
		Orders:             orderService,
		Reviews:            reviewService,
		Wishlist:           wishlistService,
		Checkout:           orchestrator,
		AdminTokenHash:     cfg.AdminTokenHash,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Metrics:            httpserver.NewMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()
	relayDone := make(chan struct{})
	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers)
		defer publisher.Close()
		relay := events.NewRelay(outbox.NewStore(dbpool), publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize, logger)
		go func() {
			defer close(relayDone)
			if err := relay.Run(relayCtx); err != nil {
				logger.Error("outbox relay stopped", zap.Error(err))
			}
		}()
	} else {
		close(relayDone)
		logger.Info("KAFKA_BROKERS not set, order events stay in the outbox")
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
	stopRelay()
	<-relayDone
}
