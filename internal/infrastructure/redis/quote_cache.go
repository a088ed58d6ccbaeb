package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Albkings1/bot/internal/application"
	"github.com/Albkings1/bot/internal/domain"
)

const keyPrefix = "signal:"

// QuoteCache keeps the last quote per pair in redis. Entries never expire
// on the redis side; staleness is judged by the caller against fetched_at.
type QuoteCache struct {
	Client *redis.Client
}

var _ application.QuoteCache = (*QuoteCache)(nil)

func NewQuoteCache(client *redis.Client) *QuoteCache {
	return &QuoteCache{Client: client}
}

type cacheEntry struct {
	Pair      string    `json:"pair"`
	Price     float64   `json:"price"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	Strength  float64   `json:"strength"`
	Category  string    `json:"category"`
	Trend     string    `json:"trend"`
	Timestamp time.Time `json:"timestamp"`
	Synthetic bool      `json:"synthetic"`
	FetchedAt time.Time `json:"fetched_at"`
}

func (c *QuoteCache) Get(ctx context.Context, pair domain.Pair) (domain.Quote, time.Time, error) {
	raw, err := c.Client.Get(ctx, keyPrefix+string(pair)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Quote{}, time.Time{}, application.ErrNotFound
	}
	if err != nil {
		return domain.Quote{}, time.Time{}, fmt.Errorf("quote cache get: %w", err)
	}

	var e cacheEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return domain.Quote{}, time.Time{}, fmt.Errorf("quote cache decode: %w", err)
	}
	return domain.Quote{
		Pair:      domain.Pair(e.Pair),
		Price:     e.Price,
		Bid:       e.Bid,
		Ask:       e.Ask,
		Strength:  e.Strength,
		Category:  domain.Category(e.Category),
		Trend:     domain.Trend(e.Trend),
		Timestamp: e.Timestamp,
		Synthetic: e.Synthetic,
	}, e.FetchedAt, nil
}

func (c *QuoteCache) Put(ctx context.Context, q domain.Quote, fetchedAt time.Time) error {
	raw, err := json.Marshal(cacheEntry{
		Pair:      string(q.Pair),
		Price:     q.Price,
		Bid:       q.Bid,
		Ask:       q.Ask,
		Strength:  q.Strength,
		Category:  string(q.Category),
		Trend:     string(q.Trend),
		Timestamp: q.Timestamp,
		Synthetic: q.Synthetic,
		FetchedAt: fetchedAt,
	})
	if err != nil {
		return fmt.Errorf("quote cache encode: %w", err)
	}
	if err := c.Client.Set(ctx, keyPrefix+string(q.Pair), raw, 0).Err(); err != nil {
		return fmt.Errorf("quote cache put: %w", err)
	}
	return nil
}
