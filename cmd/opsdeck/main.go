package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"opsdeck/internal/amqp"
	"opsdeck/internal/cli"
	apphttp "opsdeck/internal/http"
	"opsdeck/internal/ports"
	"opsdeck/internal/services"
	"opsdeck/internal/snapshot"
)

func main() {
	cfg, logger := cli.Bootstrap()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	hub := snapshot.NewHub(repo)
	if err := hub.Refresh(context.Background()); err != nil {
		logger.Error("Failed to load initial board snapshot", "error", err)
		os.Exit(1)
	}

	// The API keeps accepting payments when the broker is down; the
	// worker's reconcile loop picks up anything that was never published.
	var publisher ports.EventPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, exports deferred to reconcile", "error", err)
	} else {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	paymentSvc := services.NewPaymentService(repo, repo, publisher, hub)
	registrySvc := services.NewRegistryService(repo, hub)

	srv := apphttp.NewServer(":"+cfg.Port, paymentSvc, registrySvc, hub, cfg.Founders)

	ctx := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting opsdeck server", "port", cfg.Port, "founders", cfg.Founders)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
