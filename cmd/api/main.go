package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scentboard/scentboard/internal/config"
	"github.com/scentboard/scentboard/internal/handlers"
	"github.com/scentboard/scentboard/internal/repository"
	"github.com/scentboard/scentboard/internal/services"
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
	logger.Info("Starting Scentboard API server...")

	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}

	ctx := context.Background()
	postRepo := repository.NewPostRepository(db.DB)

	var (
		unreadCache     services.Cache
		trendingService *services.TrendingService
	)
	if cfg.Redis.Enabled {
		redisClient := cache.NewRedisClient(
			cfg.Redis.Addr(),
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			cfg.Redis.MinIdleConns,
		)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		unreadCache = redisClient
		trendingService = services.NewTrendingService(redisClient, postRepo, cfg.Trending, logger)
	} else {
		localCache, err := cache.NewLocalCache(cfg.Redis.LocalCacheSize)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create local cache")
		}
		unreadCache = localCache
		logger.Warn("Redis disabled, using in-process cache and popular ranking for trending")
	}

	var producer queue.Publisher = queue.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.Events)
		defer kafkaProducer.Close()
		producer = kafkaProducer
	} else {
		logger.Warn("No Kafka brokers configured, domain events are dropped")
	}

	userRepo := repository.NewUserRepository(db.DB)
	followRepo := repository.NewFollowRepository(db.DB)
	tokenRepo := repository.NewRefreshTokenRepository(db.DB)
	commentRepo := repository.NewCommentRepository(db.DB)
	likeRepo := repository.NewLikeRepository(db.DB)
	savedRepo := repository.NewSavedRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)

	pages := services.NewPaginator(cfg.Pagination)
	notificationService := services.NewNotificationService(notificationRepo, unreadCache, pages, cfg.Notifications, logger)
	userService := services.NewUserService(userRepo, followRepo, tokenRepo, cfg.JWT.RefreshTTL, logger)
	graphService := services.NewGraphService(userRepo, followRepo, notificationService, producer, pages, logger)
	postService := services.NewPostService(postRepo, likeRepo, savedRepo, commentRepo, userRepo, trendingService, producer, pages, logger)
	commentService := services.NewCommentService(postRepo, commentRepo, userRepo, likeRepo, notificationService, producer, pages, logger)
	interactionService := services.NewInteractionService(postRepo, commentRepo, likeRepo, savedRepo, notificationService, producer, pages, logger)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.NewRouter(handlers.Handlers{
		Users:         handlers.NewUserHandler(userService, graphService, cfg.JWT.Secret, cfg.JWT.ExpireTime),
		Posts:         handlers.NewPostHandler(postService),
		Comments:      handlers.NewCommentHandler(commentService),
		Interactions:  handlers.NewInteractionHandler(interactionService),
		Notifications: handlers.NewNotificationHandler(notificationService),
	}, handlers.RouterConfig{
		JWTSecret:    cfg.JWT.Secret,
		AllowOrigins: cfg.Server.AllowOrigins,
	}, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
