package application

import (
	"context"
	"time"

	"github.com/Albkings1/bot/internal/domain"
)

// LedgerStore is the durable quota and license store. Every mutation must be
// atomic per user id or license key; see the pg implementation.
type LedgerStore interface {
	GetUser(ctx context.Context, id int64) (domain.User, error)
	CreateUser(ctx context.Context, u domain.User) error
	ListUsers(ctx context.Context) ([]domain.User, error)
	// ResetDaily zeroes daily_uses and stamps today, only when the stored
	// date differs. A same-day call is a no-op.
	ResetDaily(ctx context.Context, id int64, today string) error
	// RecordUse applies the day rollover and increments counters in one
	// atomic step, returning the new lifetime total.
	RecordUse(ctx context.Context, id int64, today string) (int, error)

	IssueLicense(ctx context.Context, l domain.License) error
	GetLicense(ctx context.Context, key string) (domain.License, error)
	ActivateLicense(ctx context.Context, userID int64, key string) error
	RevokeLicense(ctx context.Context, userID int64) error
}

// QuoteCache persists the last quote per pair together with its fetch time.
type QuoteCache interface {
	Get(ctx context.Context, pair domain.Pair) (domain.Quote, time.Time, error)
	Put(ctx context.Context, q domain.Quote, fetchedAt time.Time) error
}

// RateProvider reaches the upstream feed with a specific credential.
type RateProvider interface {
	Rate(ctx context.Context, pair domain.Pair, apiKey string) (domain.Rate, error)
}

// QuoteFetcher produces a quote for a pair. It never fails; under upstream
// exhaustion the result is synthetic.
type QuoteFetcher interface {
	Fetch(ctx context.Context, pair domain.Pair, premium bool) domain.Quote
}

// Notifier delivers a rendered text message to one user.
type Notifier interface {
	Send(ctx context.Context, userID int64, text string) error
}

// Worker represents a background processor.
// Implementations must run until the context is canceled.
type Worker interface {
	Start(ctx context.Context)
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }
