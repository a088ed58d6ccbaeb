package application

import (
	"context"
	"errors"
	"math/rand"

	"go.uber.org/zap"

	"github.com/Albkings1/bot/internal/domain"
)

const (
	DefaultFreeLimit         = 2
	DefaultPremiumDailyLimit = 10

	licenseKeyLen     = 16
	licenseKeyCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Ledger owns per-user entitlement state and the license-key lifecycle. The
// free tier is a lifetime cap; premium is a per-calendar-day cap.
type Ledger struct {
	store LedgerStore

	freeLimit    int
	premiumDaily int

	clock Clock
	log   *zap.Logger
}

type LedgerOption func(*Ledger)

func WithLedgerClock(c Clock) LedgerOption {
	return func(l *Ledger) { l.clock = c }
}

func WithLedgerLogger(log *zap.Logger) LedgerOption {
	return func(l *Ledger) { l.log = log }
}

func NewLedger(store LedgerStore, freeLimit, premiumDaily int, opts ...LedgerOption) *Ledger {
	l := &Ledger{store: store, freeLimit: freeLimit, premiumDaily: premiumDaily}
	if l.freeLimit <= 0 {
		l.freeLimit = DefaultFreeLimit
	}
	if l.premiumDaily <= 0 {
		l.premiumDaily = DefaultPremiumDailyLimit
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.clock == nil {
		l.clock = realClock{}
	}
	if l.log == nil {
		l.log = zap.NewNop()
	}
	return l
}

func (l *Ledger) FreeLimit() int         { return l.freeLimit }
func (l *Ledger) PremiumDailyLimit() int { return l.premiumDaily }

func (l *Ledger) today() string {
	return l.clock.Now().Format(domain.DateFormat)
}

// GetOrCreateUser returns the record for id, creating a free-tier record on
// first interaction. Creation is idempotent under concurrent first requests.
func (l *Ledger) GetOrCreateUser(ctx context.Context, id int64, username string) (domain.User, error) {
	u, err := l.store.GetUser(ctx, id)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return domain.User{}, err
	}

	u = domain.User{
		ID:          id,
		Username:    username,
		LastUseDate: l.today(),
		JoinedAt:    l.clock.Now(),
	}
	if err := l.store.CreateUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	l.log.Info("user_created", zap.Int64("user_id", id), zap.String("username", username))
	return l.store.GetUser(ctx, id)
}

// QuotaRemaining reports how many signals the user may still request. For a
// premium user this applies the day rollover as a side effect; the store-side
// reset is conditional on the stored date, so it happens at most once per
// calendar day no matter how often this is called.
func (l *Ledger) QuotaRemaining(ctx context.Context, userID int64) (int, error) {
	u, err := l.store.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !u.Premium {
		return maxInt(0, l.freeLimit-u.LifetimeUses), nil
	}

	today := l.today()
	if u.LastUseDate != today {
		if err := l.store.ResetDaily(ctx, userID, today); err != nil {
			return 0, err
		}
		if u, err = l.store.GetUser(ctx, userID); err != nil {
			return 0, err
		}
	}
	return maxInt(0, l.premiumDaily-u.DailyUses), nil
}

// RecordUse charges one signal use and returns the new lifetime total.
func (l *Ledger) RecordUse(ctx context.Context, userID int64) (int, error) {
	return l.store.RecordUse(ctx, userID, l.today())
}

// IssueLicense creates a dormant license. A duplicate key silently replaces
// the prior entry; keys come from RandomLicenseKey so collisions are not
// expected in practice.
func (l *Ledger) IssueLicense(ctx context.Context, key string, durationDays int) (domain.License, error) {
	lic := domain.License{
		Key:          key,
		DurationDays: durationDays,
		CreatedAt:    l.clock.Now(),
	}
	if err := l.store.IssueLicense(ctx, lic); err != nil {
		return domain.License{}, err
	}
	l.log.Info("license_issued", zap.Int("duration_days", durationDays))
	return lic, nil
}

// ActivateLicense flips an unused license to used and upgrades the user, as
// one atomic check-and-set.
func (l *Ledger) ActivateLicense(ctx context.Context, userID int64, key string) error {
	if err := l.store.ActivateLicense(ctx, userID, key); err != nil {
		return err
	}
	l.log.Info("license_activated", zap.Int64("user_id", userID))
	return nil
}

// RevokeLicense downgrades the user and releases the key for reuse.
func (l *Ledger) RevokeLicense(ctx context.Context, userID int64) error {
	if err := l.store.RevokeLicense(ctx, userID); err != nil {
		return err
	}
	l.log.Info("license_revoked", zap.Int64("user_id", userID))
	return nil
}

func (l *Ledger) ListUsers(ctx context.Context) ([]domain.User, error) {
	return l.store.ListUsers(ctx)
}

// RandomLicenseKey builds a 16-character uppercase alphanumeric key.
func RandomLicenseKey(r *rand.Rand) string {
	b := make([]byte, licenseKeyLen)
	for i := range b {
		b[i] = licenseKeyCharset[r.Intn(len(licenseKeyCharset))]
	}
	return string(b)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
