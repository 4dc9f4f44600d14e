package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-rental-checkout/internal/config"
	"github.com/ariefcatur/go-rental-checkout/internal/httpx"
	kafkax "github.com/ariefcatur/go-rental-checkout/internal/kafka"
	"github.com/ariefcatur/go-rental-checkout/internal/logx"
	"github.com/ariefcatur/go-rental-checkout/internal/orders"
	"github.com/ariefcatur/go-rental-checkout/internal/postgres"
	"github.com/ariefcatur/go-rental-checkout/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger, err := logx.New(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	if cfg.RunMigrations {
		if err := orders.Migrate(cfg.PostgresDSN); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024, logger)
	prod.Start(ctx)

	// Repo, breaker & sessions
	repo := &orders.Repo{DB: db}
	store := orders.NewBreaker(repo, orders.BreakerSettings{}, logger)
	sessions := httpx.NewSessions(redisx.NewStorage(rdb, cfg.BagTTL), store, httpx.SessionOptions{
		Navigator:   &orders.Announcer{Producer: prod, Service: cfg.ServiceName, Log: logger},
		Logger:      logger,
		CallTimeout: cfg.OrderCallTimeout,
		IdleTTL:     cfg.SessionIdleTTL,
		MaxSessions: cfg.MaxSessions,
	})

	router := httpx.NewRouter()
	(&httpx.BagHandler{Sessions: sessions}).Register(router)
	(&httpx.CheckoutHandler{Sessions: sessions, Log: logger}).Register(router)
	(&httpx.OrdersHandler{Repo: repo, Redis: rdb, Log: logger}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		logger.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		// placement yang masih jalan akan dapat ErrProducerClosed, bukan panic
		logger.Warn("http shutdown incomplete", zap.Error(err))
	}
	prod.Close()      // tutup inbox -> flush & close writer
	prod.WaitClosed() // drain
}
