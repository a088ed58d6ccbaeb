package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Albkings1/bot/internal/bootstrap"
	"github.com/Albkings1/bot/internal/config"
	"github.com/Albkings1/bot/internal/domain"
	"github.com/Albkings1/bot/internal/infrastructure/logx"
	"github.com/Albkings1/bot/internal/infrastructure/worker"
)

func init() { _ = godotenv.Load() }

func main() {
	logger := logx.L()
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache, closeCache, err := bootstrap.BuildCache(cfg)
	if err != nil {
		logger.Fatal("bootstrap cache", zap.Error(err))
	}
	defer closeCache()

	pipeline := bootstrap.BuildPipeline(cfg, cache, bootstrap.BuildProvider(cfg))

	pairs := make([]domain.Pair, 0, len(cfg.Pairs))
	for _, p := range cfg.Pairs {
		pairs = append(pairs, domain.Pair(p))
	}
	if len(pairs) == 0 {
		pairs = domain.DefaultPairs
	}

	w := &worker.Refresher{
		Quotes: pipeline,
		Pairs:  pairs,
		Every:  cfg.RefreshEvery,
		Log:    logger,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	w.Start(ctx)
}
