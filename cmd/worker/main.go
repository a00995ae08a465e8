package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/scentboard/scentboard/internal/config"
	"github.com/scentboard/scentboard/internal/repository"
	"github.com/scentboard/scentboard/internal/services"
	"github.com/scentboard/scentboard/internal/workers"
	"github.com/scentboard/scentboard/pkg/cache"
	"github.com/scentboard/scentboard/pkg/logger"
	"github.com/scentboard/scentboard/pkg/queue"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.NewLogger(cfg.Log.Level)
	logger.Info("Starting Scentboard worker...")

	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	redisClient := cache.NewRedisClient(
		cfg.Redis.Addr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
		cfg.Redis.MinIdleConns,
	)
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := redisClient.Ping(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	consumer := queue.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.Events, cfg.Kafka.ConsumerGroup)

	postRepo := repository.NewPostRepository(db.DB)
	trendingService := services.NewTrendingService(redisClient, postRepo, cfg.Trending, logger)
	worker := workers.NewEventWorker(consumer, trendingService, cfg.Trending.RebuildInterval, logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := worker.Start(ctx); err != nil {
			logger.WithError(err).Error("Event worker stopped with error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-done:
	}

	logger.Info("Shutting down worker...")
	cancel()
	<-done

	if err := worker.Stop(); err != nil {
		logger.WithError(err).Error("Failed to stop event worker")
	}

	logger.Info("Worker exited")
}
