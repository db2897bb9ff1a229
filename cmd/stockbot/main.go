package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/frankrogerrm/Jobsity/cmd/stockbot/internal/bot"
	"github.com/frankrogerrm/Jobsity/cmd/stockbot/internal/stooq"
	"github.com/frankrogerrm/Jobsity/pkg/config"
	"github.com/frankrogerrm/Jobsity/pkg/queue"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := config.NewLogger(cfg.App.Env, cfg.Logger)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	// Broker unreachable => nothing to consume; fail fast and let the
	// supervisor restart us
	qc, err := queue.Dial(cfg.RabbitMQ.URL())
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	if err := qc.Declare(cfg.RabbitMQ.CommandQueue); err != nil {
		logger.Fatal("Failed to declare command queue", zap.Error(err))
	}
	if err := qc.Declare(cfg.RabbitMQ.ResponseQueue); err != nil {
		logger.Fatal("Failed to declare response queue", zap.Error(err))
	}

	provider := stooq.NewClient(cfg.Stooq.BaseURL, time.Duration(cfg.Stooq.TimeoutSeconds)*time.Second)

	worker := bot.NewWorker(logger, qc, provider,
		cfg.RabbitMQ.CommandQueue, cfg.RabbitMQ.ResponseQueue, cfg.Bot.MaxRetries)

	sub, err := qc.Consume(cfg.RabbitMQ.CommandQueue)
	if err != nil {
		logger.Fatal("Failed to subscribe to command queue", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx, sub.Deliveries())
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("Shutdown signal received")

	// Stop new deliveries first, then let the in-flight command settle
	if err := sub.Cancel(); err != nil {
		logger.Error("Error cancelling subscription", zap.Error(err))
	}
	wg.Wait()

	if err := qc.Close(); err != nil {
		logger.Error("Error closing queue client", zap.Error(err))
	}

	logger.Info("Stock bot exited cleanly")
}
