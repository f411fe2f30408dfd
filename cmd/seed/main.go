package main

import (
	"context"

	"bookstore/internal/config"
	"bookstore/internal/db"
	"bookstore/internal/logging"
	authorrepo "bookstore/internal/repository/author"
	bookrepo "bookstore/internal/repository/book"
	categoryrepo "bookstore/internal/repository/category"
	"bookstore/internal/seed"
	catalogsvc "bookstore/internal/service/catalog"
	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New("seed", cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	catalog := catalogsvc.New(bookrepo.NewPostgres(pool, logger), categoryrepo.NewPostgres(pool), authorrepo.NewPostgres(pool))
	if err := seed.Apply(ctx, catalog); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	logger.Info("seed applied")
}
