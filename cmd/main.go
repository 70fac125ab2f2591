package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"payment-orchestrator/config"
	_ "payment-orchestrator/docs"
	infradb "payment-orchestrator/infra/db"
	"payment-orchestrator/infra/rail"
	"payment-orchestrator/infra/repository"
	"payment-orchestrator/internal/core/handler"
	"payment-orchestrator/internal/core/usecase"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title          Payment Orchestrator API
// @version        1.0
// @description    Payment orchestration over an external rail with an idempotency ledger, double-entry accounting and automatic reconciliation.
// @host           localhost:8080
// @BasePath       /
// @schemes        http
// @securityDefinitions.apikey BearerAuth
// @in             header
// @name           Authorization
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

	tokenStore := repository.NewTokenStore(db)

	factory := usecase.NewFactory(usecase.FactoryDeps{
		Transactions: repository.NewTransactionRepository(db),
		Accounts:     repository.NewAccountStore(db),
		Ledger:       repository.NewLedgerRepository(db),
		Rail:         rail.NewHTTPConnector(cfg.Rail.BaseURL, cfg.Rail.Timeout),
		Tokens:       tokenStore,
		MaxAttempts:  cfg.Rail.MaxAttempts,
		RetryBase:    cfg.Rail.RetryBase,
		Logger:       logger,
	})

	mux := http.NewServeMux()
	handler.RegisterAll(mux, factory, tokenStore)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: handler.MetricsMiddleware(mux),
	}

	go func() {
		logger.Info("starting HTTP server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down gracefully")

	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}
