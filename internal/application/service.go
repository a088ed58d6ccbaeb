package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Albkings1/bot/internal/domain"
)

// SignalService glues the ledger and the quote pipeline together: authorize,
// fetch, record. The front-end only renders what comes back.
type SignalService struct {
	ledger *Ledger
	quotes QuoteFetcher
	log    *zap.Logger
}

func NewSignalService(ledger *Ledger, quotes QuoteFetcher, log *zap.Logger) *SignalService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SignalService{ledger: ledger, quotes: quotes, log: log}
}

func (s *SignalService) Ledger() *Ledger { return s.ledger }

type SignalResult struct {
	Quote     domain.Quote
	User      domain.User
	Remaining int // quota left after this request
	Limit     int
}

// RequestSignal runs one user request end to end. A quote is always produced
// once the caller is authorized; quota exhaustion surfaces as
// ErrQuotaExceeded before any upstream work happens.
func (s *SignalService) RequestSignal(ctx context.Context, userID int64, username string, pair domain.Pair) (SignalResult, error) {
	if !domain.ValidatePair(string(pair)) {
		return SignalResult{}, fmt.Errorf("%w: %s", ErrUnsupportedPair, pair)
	}

	u, err := s.ledger.GetOrCreateUser(ctx, userID, username)
	if err != nil {
		return SignalResult{}, err
	}

	remaining, err := s.ledger.QuotaRemaining(ctx, u.ID)
	if err != nil {
		return SignalResult{}, err
	}
	if remaining <= 0 {
		return SignalResult{}, ErrQuotaExceeded
	}

	q := s.quotes.Fetch(ctx, pair, u.Premium)

	if _, err := s.ledger.RecordUse(ctx, u.ID); err != nil {
		return SignalResult{}, err
	}
	remaining, err = s.ledger.QuotaRemaining(ctx, u.ID)
	if err != nil {
		return SignalResult{}, err
	}

	limit := s.ledger.FreeLimit()
	if u.Premium {
		limit = s.ledger.PremiumDailyLimit()
	}

	s.log.Info("signal_served",
		zap.Int64("user_id", userID),
		zap.String("pair", string(pair)),
		zap.Bool("synthetic", q.Synthetic),
		zap.Int("remaining", remaining),
	)
	return SignalResult{Quote: q, User: u, Remaining: remaining, Limit: limit}, nil
}

// Broadcast delivers text to every eligible user: premium users for free,
// free users while they have quota left (each delivery is charged). One
// failed delivery never aborts the rest.
func (s *SignalService) Broadcast(ctx context.Context, text string, notify Notifier) (int, error) {
	users, err := s.ledger.ListUsers(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, u := range users {
		if !u.Premium {
			remaining, err := s.ledger.QuotaRemaining(ctx, u.ID)
			if err != nil || remaining <= 0 {
				continue
			}
			if _, err := s.ledger.RecordUse(ctx, u.ID); err != nil {
				continue
			}
		}
		if err := notify.Send(ctx, u.ID, text); err != nil {
			s.log.Warn("broadcast_delivery_failed", zap.Int64("user_id", u.ID), zap.Error(err))
			continue
		}
		sent++
	}
	s.log.Info("broadcast_done", zap.Int("sent", sent), zap.Int("users", len(users)))
	return sent, nil
}
