package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-rental-checkout/internal/config"
	"github.com/ariefcatur/go-rental-checkout/internal/confirm"
	kafkax "github.com/ariefcatur/go-rental-checkout/internal/kafka"
	"github.com/ariefcatur/go-rental-checkout/internal/logx"
	"github.com/ariefcatur/go-rental-checkout/internal/orders"
	"github.com/ariefcatur/go-rental-checkout/internal/postgres"
	"github.com/ariefcatur/go-rental-checkout/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger, err := logx.New(cfg.LogLevel, cfg.ServiceName+"-confirmer")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rdb.Close()

	// Service
	svc := &confirm.Service{
		Repo:        &orders.Repo{DB: db},
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-confirmer",
		Log:         logger,
	}

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ConfirmerGroup, orders.TopicOrderPlaced, cfg.ConfirmerWorkers, logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info("confirmer consumer started",
			zap.String("group", cfg.ConfirmerGroup),
			zap.String("topic", orders.TopicOrderPlaced),
			zap.Int("workers", cfg.ConfirmerWorkers))
		if err := cons.Start(ctx, svc.HandleOrderPlaced); err != nil {
			logger.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	logger.Info("shutting down consumer...")
	cancel()
	<-done
}
