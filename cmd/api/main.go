package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Albkings1/bot/internal/bootstrap"
	"github.com/Albkings1/bot/internal/config"
	httpserver "github.com/Albkings1/bot/internal/infrastructure/http"
	"github.com/Albkings1/bot/internal/infrastructure/logx"
)

func init() { _ = godotenv.Load() }

func main() {
	ctx := context.Background()
	logger := logx.L()
	cfg := config.Load()
	addr := ":" + cfg.Port

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

	srv := httpserver.NewServer(ledger, pipeline, store.Ping)
	mux := httpserver.NewRouter(srv)

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("server started", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = server.Shutdown(shutdownCtx)
	logger.Info("server stopped")
}
