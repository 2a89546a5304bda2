package main

import (
	"context"
	"log"
	"time"

	"gebeya-market/config"
	"gebeya-market/internal/domain/chat"
	"gebeya-market/internal/domain/listing"
	"gebeya-market/internal/domain/user"
	"gebeya-market/internal/handler"
	"gebeya-market/internal/notify"
	"gebeya-market/internal/ratelimit"
	"gebeya-market/internal/redis"
	"gebeya-market/internal/repository"
	"gebeya-market/internal/server"
	"gebeya-market/internal/services"
	"gebeya-market/internal/storage"
	"gebeya-market/pkg/database"
	"gebeya-market/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	logMode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		logMode = logger.ProductionMode
	}
	l := logger.New(logMode)
	logger.SetGlobalLogger(l)

	database.Connect(cfg)
	if err := database.DB.AutoMigrate(
		&user.User{},
		&listing.Category{},
		&listing.Listing{},
		&chat.Chat{},
		&chat.Message{},
	); err != nil {
		log.Fatalf("Failed to apply GORM migrations: %v", err)
	}

	redis.Initialize(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	redisClient := redis.GetClient()

	userRepo := repository.NewUserRepository(database.DB)
	listingRepo := repository.NewListingRepository(database.DB)
	chatRepo := repository.NewChatRepository(database.DB)

	cache := redis.NewCacheStore(redisClient, redis.DefaultCacheConfig())
	limiter := ratelimit.NewLimiter(redis.NewWindowStore(redisClient), cfg, l)

	var notifier notify.Notifier
	if cfg.BotToken != "" {
		notifier = notify.NewTelegramNotifier(cfg.BotToken, cfg.BotUsername, l)
	}

	var store *storage.Client
	if cfg.S3Bucket != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		s3Client, err := storage.NewClient(ctx, storage.S3Config{
			Region:     cfg.S3Region,
			Bucket:     cfg.S3Bucket,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			Endpoint:   cfg.S3Endpoint,
			PublicBase: cfg.S3PublicBase,
			PresignTTL: 15 * time.Minute,
		})
		cancel()
		if err != nil {
			l.Warnf("S3 storage disabled: %v", err)
		} else {
			store = s3Client
		}
	}

	authService := services.NewAuthService(userRepo, cfg)
	userService := services.NewUserService(userRepo, cache, l)
	listingService := services.NewListingService(listingRepo, userRepo, cache, l)
	chatService := services.NewChatService(chatRepo, listingRepo, userRepo, notifier, l, cfg.AllowEmptyMessages)

	handlers := &server.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		User:    handler.NewUserHandler(userService),
		Listing: handler.NewListingHandler(listingService),
		Chat:    handler.NewChatHandler(chatService),
		Upload:  handler.NewUploadHandler(store),
	}

	srv := server.New(cfg, l)
	srv.SetupRoutes(handlers, authService, limiter)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
