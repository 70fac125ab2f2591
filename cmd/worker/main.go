package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"payment-orchestrator/config"
	infradb "payment-orchestrator/infra/db"
	"payment-orchestrator/infra/rail"
	"payment-orchestrator/infra/repository"
	"payment-orchestrator/internal/core/broker"
	"payment-orchestrator/internal/core/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := infradb.Connect(cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	rabbit, err := broker.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer rabbit.Close()
	logger.Info("connected to rabbitmq", slog.String("exchange", cfg.RabbitMQ.Exchange))

	reconciler := worker.NewReconciler(
		repository.NewTransactionRepository(db),
		repository.NewAccountStore(db),
		repository.NewLedgerRepository(db),
		rail.NewHTTPConnector(cfg.Rail.BaseURL, cfg.Rail.Timeout),
		worker.ReconcilerConfig{
			Interval:  cfg.Reconcile.Interval,
			Staleness: cfg.Reconcile.Staleness,
			BatchSize: cfg.Reconcile.BatchSize,
			MaxCycles: cfg.Reconcile.MaxCycles,
		},
		logger,
	)

	outboxWorker := worker.NewOutboxWorker(
		repository.NewOutboxRepository(db),
		broker.NewRabbitMQPublisher(rabbit.Channel, cfg.RabbitMQ.Exchange),
		cfg.Outbox.PollInterval,
		cfg.Outbox.BatchSize,
		logger,
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		reconciler.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		outboxWorker.Run(ctx)
	}()

	<-ctx.Done()
	wg.Wait()
	logger.Info("workers stopped")
}
