package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ytm-bot/internal/client/resolver"
	"ytm-bot/internal/client/ytdlp"
	"ytm-bot/internal/config"
	"ytm-bot/internal/services/audio"
	"ytm-bot/internal/storage/cooldown"
	"ytm-bot/internal/transport/telegram"
	"ytm-bot/internal/transport/web"
	"ytm-bot/internal/utils"
)

func main() {
	// Load .env when running locally; ignored if file is absent.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := utils.NewLogger(cfg.LogLevel, cfg.ErrorLogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync() // best-effort flush

	// Verifies the token against getMe before serving anything.
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Fatal("telegram init failed", zap.Error(err))
	}
	api.Debug = false

	httpClient := &http.Client{Timeout: 60 * time.Second}
	resolverClient := resolver.NewClient(httpClient, cfg.ResolverBaseURL, cfg.SearchBaseURL, logger)
	audioService := audio.NewService(resolverClient, httpClient, logger)
	cooldowns := cooldown.New(cfg.CooldownFile, cfg.CooldownWindow(), logger)

	bot, err := telegram.NewBot(api, api.Self.UserName, audioService, cooldowns, telegram.Settings{
		RequiredChannels: cfg.RequiredChannels,
		AdminID:          cfg.AdminID,
		MaxSearchResults: cfg.MaxSearchResults,
	}, logger)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}

	fetcher := ytdlp.NewCLI(cfg.YtDlpPath, cfg.YtDlpTimeout(), logger)
	server := web.NewServer(bot, fetcher, logger)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("server starting",
		zap.String("addr", cfg.ListenAddr), zap.String("bot", api.Self.UserName))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server stopped with error", zap.Error(err))
	}

	logger.Info("server stopped")
}
