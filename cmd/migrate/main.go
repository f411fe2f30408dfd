package main

import (
	"context"
	"flag"

	"bookstore/internal/config"
	"bookstore/internal/db"
	"bookstore/internal/logging"
	"bookstore/internal/migrate"
	"go.uber.org/zap"
)

func main() {
	var down int
	flag.IntVar(&down, "down", 0, "Roll back this many migrations instead of applying")
	flag.Parse()

	cfg := config.FromEnv()
	logger, err := logging.New("migrate", cfg.LogLevel)
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

	if down > 0 {
		if err := migrate.Rollback(ctx, pool, down); err != nil {
			logger.Fatal("roll back migrations", zap.Error(err))
		}
	} else if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	version, dirty, err := migrate.Version(ctx, pool)
	if err != nil {
		logger.Fatal("read schema version", zap.Error(err))
	}
	logger.Info("migrations done", zap.Uint("version", version), zap.Bool("dirty", dirty))
}
