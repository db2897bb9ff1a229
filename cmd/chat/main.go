package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gobwas/ws"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/frankrogerrm/Jobsity/cmd/chat/internal/dispatch"
	"github.com/frankrogerrm/Jobsity/cmd/chat/internal/gateway"
	"github.com/frankrogerrm/Jobsity/cmd/chat/internal/history"
	"github.com/frankrogerrm/Jobsity/cmd/chat/internal/hub"
	"github.com/frankrogerrm/Jobsity/cmd/chat/internal/listener"
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

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	store := history.NewRedisStore(rdb)

	// Broker unreachable => no commands can be served; fail fast and let the
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

	dispatcher := dispatch.NewDispatcher(logger, qc, cfg.RabbitMQ.CommandQueue)
	wsHub := hub.NewHub(store, dispatcher, logger, cfg.Chat.HistoryLimit)

	sub, err := qc.Consume(cfg.RabbitMQ.ResponseQueue)
	if err != nil {
		logger.Fatal("Failed to subscribe to response queue", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		listener.New(logger, qc, store, wsHub).Run(ctx, sub.Deliveries())
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			return
		}

		username := r.URL.Query().Get("username")
		if username == "" {
			username = "Anonymous"
		}

		client := gateway.NewClient(conn, wsHub, logger, username)
		client.Start()
	})

	srv := &http.Server{Addr: cfg.App.Port, Handler: mux}

	go func() {
		logger.Info("Chat service started", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("HTTP Error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("Shutdown signal received")

	srv.Shutdown(context.Background())

	// Stop new deliveries first, then let the in-flight handler settle
	if err := sub.Cancel(); err != nil {
		logger.Error("Error cancelling subscription", zap.Error(err))
	}
	wg.Wait()

	if err := qc.Close(); err != nil {
		logger.Error("Error closing queue client", zap.Error(err))
	}
	store.Close()

	logger.Info("Chat service exited cleanly")
}
