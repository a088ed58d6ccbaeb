package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Albkings1/bot/internal/domain"
)

func testService(store LedgerStore, fetcher QuoteFetcher, clock Clock) *SignalService {
	return NewSignalService(testLedger(store, clock), fetcher, nil)
}

func Test_RequestSignal_FreeUserFlow(t *testing.T) {
	t.Parallel()
	store := newFakeLedgerStore()
	clock := newFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	fetcher := &fakeFetcher{quote: domain.Quote{Price: 1.1, Category: domain.CategoryStrongBuy}}
	svc := testService(store, fetcher, clock)

	res, err := svc.RequestSignal(context.Background(), 1, "alice", "EUR/USD")
	require.NoError(t, err)
	require.Equal(t, domain.Pair("EUR/USD"), res.Quote.Pair)
	require.Equal(t, 1, res.Remaining)
	require.Equal(t, 2, res.Limit)
	require.Equal(t, 1, fetcher.calls)

	u, err := store.GetUser(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, u.LifetimeUses)
}

func Test_RequestSignal_QuotaExceeded(t *testing.T) {
	t.Parallel()
	store := newFakeLedgerStore()
	clock := newFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	fetcher := &fakeFetcher{}
	svc := testService(store, fetcher, clock)

	ctx := context.Background()
	_, err := svc.RequestSignal(ctx, 1, "alice", "EUR/USD")
	require.NoError(t, err)
	_, err = svc.RequestSignal(ctx, 1, "alice", "EUR/USD")
	require.NoError(t, err)

	_, err = svc.RequestSignal(ctx, 1, "alice", "EUR/USD")
	require.ErrorIs(t, err, ErrQuotaExceeded)
	// No fetch and no charge past the cap.
	require.Equal(t, 2, fetcher.calls)
	u, err := store.GetUser(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 2, u.LifetimeUses)
}

func Test_RequestSignal_UnsupportedPair(t *testing.T) {
	t.Parallel()
	svc := testService(newFakeLedgerStore(), &fakeFetcher{}, newFakeClock(time.Now()))
	_, err := svc.RequestSignal(context.Background(), 1, "alice", "EURUSD")
	require.ErrorIs(t, err, ErrUnsupportedPair)
}

func Test_Broadcast_FireAndContinue(t *testing.T) {
	t.Parallel()
	store := newFakeLedgerStore()
	clock := newFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	svc := testService(store, &fakeFetcher{}, clock)
	ledger := svc.Ledger()

	ctx := context.Background()
	// premium user
	_, err := ledger.GetOrCreateUser(ctx, 1, "prem")
	require.NoError(t, err)
	_, err = ledger.IssueLicense(ctx, "KEY1", 30)
	require.NoError(t, err)
	require.NoError(t, ledger.ActivateLicense(ctx, 1, "KEY1"))
	// free user with quota
	_, err = ledger.GetOrCreateUser(ctx, 2, "free")
	require.NoError(t, err)
	// exhausted free user
	_, err = ledger.GetOrCreateUser(ctx, 3, "spent")
	require.NoError(t, err)
	_, err = ledger.RecordUse(ctx, 3)
	require.NoError(t, err)
	_, err = ledger.RecordUse(ctx, 3)
	require.NoError(t, err)
	// delivery failure must not stop the rest
	_, err = ledger.GetOrCreateUser(ctx, 4, "broken")
	require.NoError(t, err)

	notifier := newFakeNotifier()
	notifier.failFor[4] = true

	sent, err := svc.Broadcast(ctx, "new signal", notifier)
	require.NoError(t, err)
	require.Equal(t, 2, sent)
	require.Len(t, notifier.sent[1], 1)
	require.Len(t, notifier.sent[2], 1)
	require.Empty(t, notifier.sent[3])

	// Free recipients are charged, premium ones are not.
	u2, err := store.GetUser(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 1, u2.LifetimeUses)
	u1, err := store.GetUser(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 0, u1.LifetimeUses)
}
