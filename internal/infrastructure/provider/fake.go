package provider

import (
	"context"
	"time"

	"github.com/Albkings1/bot/internal/application"
	"github.com/Albkings1/bot/internal/domain"
)

// Ensure Fake implements application.RateProvider.
var _ application.RateProvider = (*Fake)(nil)

// Fake serves a fixed mid price with a tight spread. Useful for local runs
// without an upstream key.
type Fake struct {
	price float64
}

func NewFake(price float64) *Fake { return &Fake{price: price} }

func (f *Fake) Rate(_ context.Context, _ domain.Pair, _ string) (domain.Rate, error) {
	spread := f.price * 0.0001
	return domain.Rate{
		Price:     f.price,
		Bid:       f.price - spread/2,
		Ask:       f.price + spread/2,
		Timestamp: time.Now().UTC(),
	}, nil
}
