package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/kaylum54/promptpit-sub001/internal/auth"
	"github.com/kaylum54/promptpit-sub001/internal/config"
	"github.com/kaylum54/promptpit-sub001/internal/debate"
	"github.com/kaylum54/promptpit-sub001/internal/gateway"
	"github.com/kaylum54/promptpit-sub001/internal/handlers"
	"github.com/kaylum54/promptpit-sub001/internal/judge"
	"github.com/kaylum54/promptpit-sub001/internal/middleware"
	"github.com/kaylum54/promptpit-sub001/internal/models"
	"github.com/kaylum54/promptpit-sub001/internal/observability"
	"github.com/kaylum54/promptpit-sub001/internal/store"
	"github.com/kaylum54/promptpit-sub001/internal/usage"
)

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}

	registry, err := models.LoadRegistry(cfg.Debate.ModelsFile)
	if err != nil {
		logger.WithError(err).Fatal("failed to load model roster")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.WithError(err).Warn("redis unreachable, usage limits will fail open")
	}
	pingCancel()

	limits := map[string]int{
		usage.TierFree: cfg.Debate.FreeTierLimit,
		usage.TierPro:  cfg.Debate.ProTierLimit,
	}
	gate := usage.NewGate(usage.NewRedisStore(redisClient), limits, logger)

	var debateStore store.DebateStore
	if cfg.Supabase.URL != "" && cfg.Supabase.APIKey != "" {
		s, err := store.NewSupabaseStore(cfg.Supabase.URL, cfg.Supabase.APIKey)
		if err != nil {
			logger.WithError(err).Warn("supabase unavailable, debates will not be persisted")
		} else {
			debateStore = s
		}
	}

	client := gateway.NewClientWithBaseURL(cfg.OpenRouter.APIKey, cfg.OpenRouter.BaseURL)
	metrics := observability.NewMetrics()
	mux := debate.NewMultiplexer(client, cfg.Debate.StreamIdleTimeout, logger)
	debateController := debate.NewController(registry, mux, gate, debateStore, metrics, logger)
	judgeController := judge.NewController(client, cfg.OpenRouter.JudgeModel, cfg.Debate.JudgeMaxTurns, logger)
	resolver := auth.NewResolver(cfg.Auth.JWTSecret)

	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(cfg.Server.CORSOrigin))
	engine.Use(middleware.Identify(resolver))

	api := engine.Group("/api/v1")
	handlers.NewDebateHandler(debateController, logger).RegisterRoutes(api)
	handlers.NewJudgeHandler(judgeController, metrics, logger).RegisterRoutes(api)
	handlers.NewModelsHandler(registry).RegisterRoutes(api)
	handlers.NewHealthHandler().RegisterRoutes(engine.Group(""))
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("port", cfg.Server.Port).Info("promptpit listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
}
