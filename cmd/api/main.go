package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"chat-search/internal/config"
	"chat-search/internal/db"
	apihttp "chat-search/internal/http"
	"chat-search/internal/llm"
	"chat-search/internal/metrics"
	"chat-search/internal/repository"
	"chat-search/internal/service"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	migrations, err := db.EmbeddedMigrations()
	if err != nil {
		logger.Fatal("load migrations", zap.Error(err))
	}
	migrator := db.NewMigrator(pool, migrations, logger)

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	pgThreads := repository.NewPgThreadRepository(pool)
	threadRepo := repository.NewInstrumentedThreadRepository(pgThreads, m)
	userRepo := repository.NewPgUserRepository(pool)

	var (
		loginLimiter service.LoginRateLimiter
		tokenStore   service.RefreshTokenStore
		starterCache service.StarterCache
		redisClient  *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			loginLimiter = service.NewRedisLoginRateLimiter(redisClient, 10*time.Minute, 5)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
			starterCache = service.NewRedisStarterCache(redisClient)
		}
		cancel()
		defer redisClient.Close()
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.AuthSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.AuthSecret == "" {
		logger.Warn("auth secret not configured")
	}

	var source service.SuggestionSource = service.NewMockSuggestionSource()
	if cfg.SuggestionSource == "llm" {
		client, err := llm.NewProvider(llm.ProviderConfig{
			BaseURL: cfg.LLMBaseURL,
			APIKey:  cfg.LLMAPIKey,
			Model:   cfg.LLMModel,
		}, logger)
		if err != nil {
			logger.Warn("llm provider unavailable, using mock suggestions", zap.Error(err))
		} else {
			source = service.NewLLMSuggestionSource(client)
		}
	}

	userSvc := service.NewUserService(logger, userRepo, loginLimiter)
	chatSvc := service.NewChatQueryService(logger, threadRepo)
	suggestSvc := service.NewSuggestionService(logger, source, cfg.LLMModel, starterCache, m)

	var (
		migrationReader apihttp.MigrationStatusReader
		indexRefresher  apihttp.SearchIndexRefresher
	)
	if cfg.DebugEndpoints {
		migrationReader = migrator
		indexRefresher = pgThreads
	}

	router := apihttp.NewRouter(apihttp.RouterConfig{
		Logger:         logger,
		Metrics:        m,
		JWT:            jwtSvc,
		Gate:           apihttp.GateConfig{PublicChatRead: cfg.PublicChatRead},
		CORSOrigins:    cfg.CORSOrigins,
		DebugEndpoints: cfg.DebugEndpoints,
		Chats:          apihttp.NewChatHandler(logger, chatSvc, m),
		Suggest:        apihttp.NewSuggestHandler(logger, suggestSvc),
		Auth:           apihttp.NewAuthHandler(logger, userSvc, jwtSvc, cfg.SecureCookies),
		Handlers:       apihttp.NewHandlers(logger, pool, migrationReader, indexRefresher),
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsServer := metrics.NewServer(cfg.MetricsPort, prometheus.DefaultGatherer, logger)

	go func() {
		if err := metricsServer.Start(); err != nil {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()
	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.HTTPPort),
			zap.String("db_env", string(cfg.DBEnv)),
			zap.String("suggestion_source", source.Name()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", zap.Error(err))
	}
}
