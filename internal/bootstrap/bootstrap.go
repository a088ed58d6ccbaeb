package bootstrap

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Albkings1/bot/internal/application"
	"github.com/Albkings1/bot/internal/config"
	"github.com/Albkings1/bot/internal/infrastructure/logx"
	"github.com/Albkings1/bot/internal/infrastructure/pg"
	"github.com/Albkings1/bot/internal/infrastructure/provider"
	redisstore "github.com/Albkings1/bot/internal/infrastructure/redis"
)

// Store bundles the ledger store with its readiness probe.
type Store struct {
	Ledger application.LedgerStore
	Ping   func(context.Context) error
}

// BuildStore connects to postgres and applies migrations.
func BuildStore(ctx context.Context, cfg config.Config) (Store, func(), error) {
	log := logx.L()
	if cfg.DatabaseURL == "" {
		return Store{}, func() {}, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return Store{}, func() {}, err
	}
	if err := pg.RunMigrations(ctx, db); err != nil {
		db.Close()
		return Store{}, func() {}, err
	}
	cleanup := func() {
		log.Info("closing pg")
		db.Close()
	}
	return Store{Ledger: pg.NewLedgerRepo(db), Ping: db.Ping}, cleanup, nil
}

// BuildCache connects the redis-backed quote cache.
func BuildCache(cfg config.Config) (application.QuoteCache, func(), error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	cleanup := func() { _ = rdb.Close() }
	return redisstore.NewQuoteCache(rdb), cleanup, nil
}

// BuildProvider picks the upstream rate source. "fake" serves a fixed price
// for local runs without an API key.
func BuildProvider(cfg config.Config) application.RateProvider {
	switch cfg.Provider {
	case "fake":
		return provider.NewFake(1.0845)
	default:
		return &provider.AlphaVantageProvider{
			BaseURL: cfg.AlphaBaseURL,
			Client:  newHTTPClient(cfg.RequestTimeout),
		}
	}
}

// BuildPipeline assembles the cached, retrying, fallback-generating fetcher.
func BuildPipeline(cfg config.Config, cache application.QuoteCache, prov application.RateProvider) *application.Pipeline {
	gen := application.NewGenerator(rand.New(rand.NewSource(time.Now().UnixNano())), nil)
	return application.NewPipeline(cache, prov, gen, application.PipelineConfig{
		Credentials: application.Credentials{
			Free:    cfg.AlphaFreeKey,
			Premium: cfg.AlphaPremiumKey,
		},
		TTL:        cfg.CacheTTL,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	}, application.WithPipelineLogger(logx.L()))
}

func BuildLedger(cfg config.Config, store application.LedgerStore) *application.Ledger {
	return application.NewLedger(store, cfg.FreeLimit, cfg.PremiumDailyLimit,
		application.WithLedgerLogger(logx.L()))
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
