package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/retailagent/retailagent/internal/chat"
	"github.com/retailagent/retailagent/internal/chatui"
	"github.com/retailagent/retailagent/internal/config"
	"github.com/retailagent/retailagent/internal/observability"
)

func main() {
	cfg, err := config.LoadFromEnv("retailagent-chat")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)

	addr := flag.String("addr", envOr("RETAILAGENT_CHAT_ADDR", ":7860"), "chat UI listen address")
	apiURL := flag.String("api-url", envOr("RETAILAGENT_CHAT_API_URL", chat.DefaultAPIURL), "question endpoint URL")
	apiKey := flag.String("api-key", strings.TrimSpace(os.Getenv("RETAILAGENT_CHAT_API_KEY")), "API key sent with every question")
	timeout := flag.Duration("timeout", 3*time.Minute, "timeout for one question")
	flag.Parse()

	client := chat.NewClient(*apiURL, *apiKey, *timeout)
	server := &http.Server{
		Addr:              *addr,
		Handler:           chatui.NewHandler(client, logger),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      *timeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting chat ui", slog.String("addr", *addr), slog.String("api_url", *apiURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("chat ui failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down chat ui")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
