package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Albkings1/bot/internal/application"
	"github.com/Albkings1/bot/internal/bootstrap"
	"github.com/Albkings1/bot/internal/config"
	"github.com/Albkings1/bot/internal/domain"
	"github.com/Albkings1/bot/internal/infrastructure/logx"
	"github.com/Albkings1/bot/internal/infrastructure/telegram"
)

func init() { _ = godotenv.Load() }

func main() {
	logger := logx.L()
	cfg := config.Load()

	if cfg.TelegramToken == "" {
		logger.Fatal("TELEGRAM_TOKEN is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := bootstrap.BuildStore(ctx, cfg)
	if err != nil {
		logger.Fatal("bootstrap store", zap.Error(err))
	}
	defer closeStore()

	cache, closeCache, err := bootstrap.BuildCache(cfg)
	if err != nil {
		logger.Fatal("bootstrap cache", zap.Error(err))
	}
	defer closeCache()

	pipeline := bootstrap.BuildPipeline(cfg, cache, bootstrap.BuildProvider(cfg))
	ledger := bootstrap.BuildLedger(cfg, store.Ledger)
	svc := application.NewSignalService(ledger, pipeline, logger)

	pairs := make([]domain.Pair, 0, len(cfg.Pairs))
	for _, p := range cfg.Pairs {
		pairs = append(pairs, domain.Pair(p))
	}
	if len(pairs) == 0 {
		pairs = domain.DefaultPairs
	}

	bot, err := telegram.NewBot(cfg.TelegramToken, svc, pairs, cfg.AdminID, cfg.CacheTTL, logger)
	if err != nil {
		logger.Fatal("bootstrap telegram", zap.Error(err))
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	bot.Run(ctx)
	logger.Info("bot stopped")
}
