package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bookstore/internal/config"
	"bookstore/internal/db"
	"bookstore/internal/importer"
	"bookstore/internal/logging"
	authorrepo "bookstore/internal/repository/author"
	bookrepo "bookstore/internal/repository/book"
	categoryrepo "bookstore/internal/repository/category"
	catalogsvc "bookstore/internal/service/catalog"
	"go.uber.org/zap"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to book CSV file")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger, err := logging.New("importer", cfg.LogLevel)
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

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	catalog := catalogsvc.New(bookrepo.NewPostgres(pool, logger), categoryrepo.NewPostgres(pool), authorrepo.NewPostgres(pool))
	imp := importer.NewCSVImporter(f, catalog, logger)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatal("import failed", zap.Int("imported", count), zap.Error(err))
	}

	fmt.Printf("Imported %d books in %s\n", count, time.Since(start).Truncate(time.Millisecond))
}
