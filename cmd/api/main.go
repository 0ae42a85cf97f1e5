package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"medchat/internal/config"
	"medchat/internal/db"
	apihttp "medchat/internal/http"
	"medchat/internal/llm"
	"medchat/internal/repository"
	"medchat/internal/service"
	"medchat/internal/storage"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var (
		conversations repository.ConversationRepository
		messages      repository.MessageRepository
		pinger        apihttp.Pinger
	)
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		sqlDB, err := db.OpenSQLite(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("sqlite open", zap.Error(err))
		}
		defer sqlDB.Close()
		convRepo := repository.NewSQLiteConversationRepository(sqlDB)
		conversations, messages, pinger = convRepo, repository.NewSQLiteMessageRepository(sqlDB), convRepo
	default:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
		conversations, messages, pinger = repository.NewPgConversationRepository(pool), repository.NewPgMessageRepository(pool), pool
	}

	var (
		audioStore storage.AudioStore
		media      apihttp.MediaRoute
	)
	if cfg.UsesS3() {
		s3Store, err := storage.NewS3AudioStore(ctx, cfg.AudioS3Bucket, cfg.AudioS3Prefix, cfg.AudioS3PublicURL)
		if err != nil {
			logger.Fatal("s3 audio store", zap.Error(err))
		}
		audioStore = s3Store
	} else {
		audioStore = storage.NewLocalAudioStore(cfg.MediaRoot, cfg.MediaURL)
		media = apihttp.MediaRoute{URLPrefix: cfg.MediaURL, Root: cfg.MediaRoot}
	}

	summaryCache := service.NewMemorySummaryCache(cfg.SummaryCacheTTL)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory summary cache", zap.Error(err))
		} else {
			summaryCache = service.NewRedisSummaryCache(redisClient, cfg.SummaryCacheTTL)
		}
		cancel()
	}

	llmClient := llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	translationSvc := service.NewTranslationService(llmClient, logger)
	summarySvc := service.NewSummaryService(llmClient, logger)
	chatSvc := service.NewChatService(logger, conversations, messages, translationSvc, summarySvc, audioStore, summaryCache)

	chatHandler := apihttp.NewChatHandler(logger, chatSvc)
	healthHandler := apihttp.NewHealthHandler(logger, pinger)
	router := apihttp.NewRouter(logger, chatHandler, healthHandler, media)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("db_driver", cfg.DatabaseDriver),
		zap.Bool("s3_audio", cfg.UsesS3()),
	)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
