package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"quizcoach/referralhub/internal/auth"
	"quizcoach/referralhub/internal/config"
	"quizcoach/referralhub/internal/handler"
	"quizcoach/referralhub/internal/model"
	"quizcoach/referralhub/internal/repository"
	"quizcoach/referralhub/internal/service"
	jwtpkg "quizcoach/referralhub/pkg/jwt"
)

func main() {
	// 1. Load .env (optional) and configuration
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to read .env: %v", err)
	}
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize logger
	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 3. Connect to PostgreSQL
	db, err := config.NewPostgresDB(cfg.Database.Postgres)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}

	// 4. Auto-migrate if enabled
	if cfg.Database.Postgres.AutoMigrate {
		if err := model.AutoMigrate(db); err != nil {
			logger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		logger.Info("database migration completed")
	}

	// 5. Initialize stats cache store (Redis or in-memory)
	var cacheStore repository.CacheStore
	switch cfg.State.Backend {
	case "redis":
		redisClient, err := config.NewRedisClient(cfg.Database.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		cacheStore = repository.NewRedisCacheStore(redisClient)
		logger.Info("using Redis cache store")
	default:
		cacheStore = repository.NewMemoryCacheStore()
		logger.Info("using in-memory cache store")
	}

	// 6. Initialize repositories
	linkRepo := repository.NewPGReferralLinkRepository(db)
	signupRepo := repository.NewPGSignupRepository(db)
	transactor := repository.NewPGTransactor(db)

	// 7. Identity collaborators
	jwtManager := jwtpkg.NewManager(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL)
	authenticator := auth.NewJWTAuthenticator(jwtManager)
	roles := auth.NewStaticRoleChecker(map[string][]string{auth.RoleAdmin: cfg.Admin.UserIDs})
	if len(cfg.Admin.UserIDs) == 0 {
		logger.Warn("admin.user_ids is empty, admin endpoints will reject every caller")
	}

	// 8. Initialize services
	statsCache := service.NewStatsCache(cacheStore, cfg.Stats.CacheTTL, logger)
	attributionService, err := service.NewAttributionService(
		linkRepo, signupRepo, transactor, statsCache, logger,
		service.AttributionOptions{
			Transactional: cfg.Attribution.Transactional,
			StrictMaxUses: cfg.Attribution.StrictMaxUses,
		},
	)
	if err != nil {
		logger.Fatal("failed to init attribution service", zap.Error(err))
	}
	linkService := service.NewLinkService(linkRepo, roles, cfg.Referral.Origin)
	statsService := service.NewStatsService(linkRepo, signupRepo, roles, statsCache, logger)
	conversionService := service.NewConversionService(signupRepo, roles, statsCache, logger)

	// 9. Initialize handlers and router
	referralHandler := handler.NewReferralHandler(attributionService, logger)
	adminHandler := handler.NewAdminHandler(linkService, statsService, conversionService, logger)
	router := handler.SetupRouter(cfg, logger, authenticator, roles, referralHandler, adminHandler)

	// 10. Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 11. Start server with graceful shutdown
	go func() {
		logger.Info("server starting",
			zap.String("addr", addr),
			zap.Bool("transactional_attribution", cfg.Attribution.Transactional),
			zap.Bool("strict_max_uses", cfg.Attribution.StrictMaxUses))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited gracefully")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewDevelopmentConfig()
	if cfg.Format == "json" {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = level
	return zcfg.Build()
}
