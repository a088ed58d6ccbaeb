package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Albkings1/bot/internal/application"
	"github.com/Albkings1/bot/internal/domain"
)

var _ application.Worker = (*Refresher)(nil)

// Refresher keeps the quote cache warm by fetching every configured pair
// on a fixed interval. It runs on free-tier credentials so interactive
// premium traffic keeps the better key to itself.
type Refresher struct {
	Quotes application.QuoteFetcher
	Pairs  []domain.Pair

	Every time.Duration
	Log   *zap.Logger
}

func (w *Refresher) Start(ctx context.Context) {
	log := w.Log
	if log == nil {
		log = zap.NewNop()
	}
	if w.Every <= 0 {
		w.Every = 5 * time.Minute
	}

	t := time.NewTicker(w.Every)
	defer t.Stop()

	log.Info("refresher_started", zap.Duration("every", w.Every), zap.Int("pairs", len(w.Pairs)))
	w.tick(ctx, log)
	for {
		select {
		case <-ctx.Done():
			log.Info("refresher_stopped")
			return
		case <-t.C:
			w.tick(ctx, log)
		}
	}
}

func (w *Refresher) tick(ctx context.Context, log *zap.Logger) {
	for _, pair := range w.Pairs {
		if ctx.Err() != nil {
			return
		}
		q := w.Quotes.Fetch(ctx, pair, false)
		log.Debug("pair_refreshed",
			zap.String("pair", string(pair)),
			zap.Float64("price", q.Price),
			zap.Bool("synthetic", q.Synthetic),
		)
	}
}
