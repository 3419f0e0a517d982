package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/retailagent/retailagent/internal/agent"
	"github.com/retailagent/retailagent/internal/api"
	"github.com/retailagent/retailagent/internal/auth"
	"github.com/retailagent/retailagent/internal/config"
	"github.com/retailagent/retailagent/internal/memory"
	"github.com/retailagent/retailagent/internal/observability"
	"github.com/retailagent/retailagent/internal/query/sqldb"
	"github.com/retailagent/retailagent/internal/sqlcheck"
)

func main() {
	cfg, err := config.LoadFromEnv("retailagent-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	db, dialect, err := sqldb.Open(context.Background(), sqldb.DBConfig{
		URL:             cfg.Database.URL,
		ReadOnly:        cfg.Database.ReadOnly,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to open database", slog.String("url", sqldb.Redact(cfg.Database.URL)), slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	engine := sqldb.NewEngine(db, dialect, sqldb.EngineOptions{
		SampleRows: cfg.Database.SampleRows,
		MaxRows:    cfg.Database.MaxResultRows,
		ReadOnly:   cfg.Database.ReadOnly,
	})

	store, closeStore, memoryCheck, err := openMemory(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize conversation memory", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	chatModel, err := agent.NewOpenAIModel(context.Background(), agent.ModelConfig{
		BaseURL:     cfg.AI.BaseURL,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize chat model", slog.Any("error", err))
		os.Exit(1)
	}
	checker, err := sqlcheck.NewOpenAIChecker(sqlcheck.OpenAIConfig{
		BaseURL:     cfg.AI.BaseURL,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize query checker", slog.Any("error", err))
		os.Exit(1)
	}

	qa, err := agent.New(context.Background(), agent.Config{
		Model:    chatModel,
		Engine:   engine,
		Checker:  checker,
		Memory:   store,
		MaxSteps: cfg.AI.MaxSteps,
		TopK:     agent.DefaultTopK,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to build agent", slog.Any("error", err))
		os.Exit(1)
	}

	deps := api.Dependencies{
		Logger:               logger,
		Agent:                qa,
		Readiness:            api.CombineReadinessChecks(api.PingCheck(engine), memoryCheck),
		DependencyTimeout:    2 * time.Second,
		SlowRequestThreshold: 30 * time.Second,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		if validator.Len() == 0 {
			logger.Warn("auth required but no static keys configured; every query will be rejected")
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("dialect", dialect.Name),
			slog.String("model", cfg.AI.Model),
			slog.String("memory", string(cfg.Memory.Backend)),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

func openMemory(cfg config.Config, logger *slog.Logger) (memory.Store, func(), api.ReadinessCheck, error) {
	switch cfg.Memory.Backend {
	case config.MemoryBackendRedis:
		store, err := memory.NewRedis(context.Background(), memory.RedisConfig{
			Addr:        cfg.Memory.RedisAddr,
			Password:    cfg.Memory.RedisPassword,
			DB:          cfg.Memory.RedisDB,
			TTL:         cfg.Memory.TTL,
			MaxMessages: cfg.Memory.MaxMessages,
		})
		if err != nil {
			return nil, func() {}, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close redis memory", slog.Any("error", err))
			}
		}, api.PingCheck(store), nil
	case config.MemoryBackendNone:
		return memory.Nop{}, func() {}, nil, nil
	default:
		return memory.NewInMemory(cfg.Memory.MaxMessages), func() {}, nil, nil
	}
}
