package main

import (
	"context"
	"log"
	"time"

	"medmonics/internal/config"
	"medmonics/internal/database"
	"medmonics/internal/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	l := logger.Get()
	defer logger.Sync()

	if !cfg.CatalogEnabled() {
		l.Fatal("db.host is not configured")
	}

	db, err := database.NewSQLXOracleDB(cfg.GetDSN(), l)
	if err != nil {
		l.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := database.RunMigrations(ctx, db.DB, l); err != nil {
		l.Fatal("Failed to run migrations", zap.Error(err))
	}
	l.Info("Migrations applied")
}
