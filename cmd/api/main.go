package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/carcraze/marketplace-api/internal/config"
	"github.com/carcraze/marketplace-api/internal/events"
	"github.com/carcraze/marketplace-api/internal/handler"
	"github.com/carcraze/marketplace-api/internal/metrics"
	"github.com/carcraze/marketplace-api/internal/migrations"
	"github.com/carcraze/marketplace-api/internal/repository"
	"github.com/carcraze/marketplace-api/internal/service"
	"github.com/carcraze/marketplace-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) (err error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		return fmt.Errorf("parse db config: %w", err)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	log.Info("connected to PostgreSQL")

	if cfg.DB.AutoMigrate {
		sqlDB := stdlib.OpenDBFromPool(dbPool)
		err := migrations.Up(ctx, sqlDB)
		err = multierr.Append(err, sqlDB.Close())
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations applied")
	}

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to Redis: %w", err)
	}
	log.Info("connected to Redis")

	// RabbitMQ: publishing and consuming use separate channels.
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		return fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	defer func() { err = multierr.Append(err, amqpConn.Close()) }()

	pubCh, err := amqpConn.Channel()
	if err != nil {
		return fmt.Errorf("open publish channel: %w", err)
	}
	consumeCh, err := amqpConn.Channel()
	if err != nil {
		return fmt.Errorf("open consume channel: %w", err)
	}
	if err := events.SetupTopology(consumeCh); err != nil {
		return fmt.Errorf("setup RabbitMQ: %w", err)
	}
	log.Info("connected to RabbitMQ")

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Repositories
	txManager := repository.NewTxManager(dbPool)
	userRepo := repository.NewUserRepository(dbPool)
	carRepo := repository.NewCarRepository(dbPool)
	cartRepo := repository.NewCartRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)
	txnRepo := repository.NewTransactionRepository(dbPool)
	rentalRepo := repository.NewRentalRepository(dbPool)

	// Services
	publisher := events.NewPublisher(pubCh, cfg.Breaker, m, log)
	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.Auth.AdminSignupCode, cfg.Auth.BcryptCost)
	catalogSvc := service.NewCatalogService(carRepo, redisClient)
	cartSvc := service.NewCartService(txManager, cartRepo, carRepo)
	orderSvc := service.NewOrderService(txManager, orderRepo, cartRepo, publisher, m, log)
	rentalSvc := service.NewRentalService(carRepo, rentalRepo)
	ledgerSvc := service.NewLedgerService(txManager, orderRepo, txnRepo)

	// Worker
	ledgerWorker := worker.NewLedgerWorker(consumeCh, ledgerSvc, redisClient, m, log)
	if err := ledgerWorker.Start(ctx); err != nil {
		return fmt.Errorf("start ledger worker: %w", err)
	}

	// Router
	if err := handler.RegisterValidators(); err != nil {
		return fmt.Errorf("register validators: %w", err)
	}
	health := handler.NewHealthHandler(
		handler.Check{Name: "database", Ping: dbPool.Ping},
		handler.Check{Name: "redis", Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
		handler.Check{Name: "rabbitmq", Ping: func(context.Context) error {
			if amqpConn.IsClosed() {
				return amqp.ErrClosed
			}
			return nil
		}},
	)
	router := handler.NewRouter(handler.RouterConfig{
		JWTSecret:   cfg.JWT.Secret,
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      log,
		Metrics:     m,
		Gatherer:    reg,
	}, handler.Handlers{
		Auth:   handler.NewAuthHandler(authSvc),
		Car:    handler.NewCarHandler(catalogSvc),
		Cart:   handler.NewCartHandler(cartSvc),
		Order:  handler.NewOrderHandler(orderSvc),
		Rental: handler.NewRentalHandler(rentalSvc),
		Ledger: handler.NewLedgerHandler(ledgerSvc),
		Health: health,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		if err != nil {
			log.Error("server error", "error", err)
		}
	}

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	var errs error
	errs = multierr.Append(errs, srv.Shutdown(shutdownCtx))
	ledgerWorker.Stop()
	cancel()
	errs = multierr.Append(errs, pubCh.Close())
	errs = multierr.Append(errs, consumeCh.Close())
	if errs != nil {
		return fmt.Errorf("shutdown: %w", errs)
	}
	log.Info("server stopped")
	return nil
}
