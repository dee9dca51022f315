package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/vhtruong/product-catalog/internal/auth"
	"github.com/vhtruong/product-catalog/internal/config"
	"github.com/vhtruong/product-catalog/internal/http"
	"github.com/vhtruong/product-catalog/internal/log"
	"github.com/vhtruong/product-catalog/internal/repository"
	"github.com/vhtruong/product-catalog/internal/service"
	"github.com/vhtruong/product-catalog/internal/storage/db"
	"github.com/vhtruong/product-catalog/internal/telemetry"
	"github.com/vhtruong/product-catalog/pkg/cmdutil"
	"github.com/vhtruong/product-catalog/pkg/validator"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running api application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Postgres config.Postgres
		HTTP     config.HTTP
		Auth     config.Auth
		Otel     config.Otel
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	cleanupTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing tracer: %w", err)
	}
	defer func() {
		if err := cleanupTracer(ctx); err != nil {
			logger.ErrorContext(ctx, "error cleaning up tracer", slog.Any("error", err))
		}
	}()

	pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	dbClient := db.NewClient(pgxPool)

	v, err := validator.NewDefaultValidator()
	if err != nil {
		return fmt.Errorf("error creating validator: %w", err)
	}

	users, err := auth.ParseUsers(cfg.Auth.Users)
	if err != nil {
		return fmt.Errorf("error parsing auth users: %w", err)
	}
	credentials := auth.NewCredentialStore(users)
	tokenMgr := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)

	productRepository := repository.NewProductRepository(dbClient)
	productService := service.NewProductService(dbClient, productRepository, v, logger)

	svc := http.New(cfg.HTTP, logger, productService, credentials, tokenMgr, v, dbClient)
	cleanup, err := svc.Run(ctx)
	if err != nil {
		return fmt.Errorf("error running http service: %w", err)
	}

	logger.InfoContext(ctx, "http service started", slog.String("address", fmt.Sprintf(":%d", cfg.HTTP.Port)))

	<-cmdutil.InterruptChan()

	logger.InfoContext(ctx, "http service is shutting down")
	if err := cleanup(ctx); err != nil {
		logger.ErrorContext(ctx, "error shutting down http service", slog.Any("error", err))
	}

	logger.InfoContext(ctx, "http service is stopped")

	return nil
}
