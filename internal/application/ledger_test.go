package application

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLedger(store LedgerStore, clock Clock) *Ledger {
	return NewLedger(store, 2, 10, WithLedgerClock(clock))
}

func Test_GetOrCreateUser(t *testing.T) {
	t.Parallel()
	store := newFakeLedgerStore()
	clock := newFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	l := testLedger(store, clock)

	u, err := l.GetOrCreateUser(context.Background(), 42, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(42), u.ID)
	require.False(t, u.Premium)
	require.Equal(t, 0, u.LifetimeUses)
	require.Equal(t, "2025-06-01", u.LastUseDate)

	// Second call returns the same record, not a fresh one.
	_, err = l.RecordUse(context.Background(), 42)
	require.NoError(t, err)
	again, err := l.GetOrCreateUser(context.Background(), 42, "alice")
	require.NoError(t, err)
	require.Equal(t, 1, again.LifetimeUses)
}

func Test_QuotaRemaining_FreeLifetimeCap(t *testing.T) {
	t.Parallel()
	store := newFakeLedgerStore()
	clock := newFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	l := testLedger(store, clock)

	_, err := l.GetOrCreateUser(context.Background(), 1, "bob")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		remaining, err := l.QuotaRemaining(context.Background(), 1)
		require.NoError(t, err)
		require.Equal(t, 2-i, remaining)
		_, err = l.RecordUse(context.Background(), 1)
		require.NoError(t, err)
	}

	remaining, err := l.QuotaRemaining(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 0, remaining)

	// The free cap is lifetime, not daily: a new day changes nothing.
	clock.Advance(48 * time.Hour)
	remaining, err = l.QuotaRemaining(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 0, remaining)
}

func Test_QuotaRemaining_PremiumDailyRollover(t *testing.T) {
	t.Parallel()
	store := newFakeLedgerStore()
	clock := newFakeClock(time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC))
	l := testLedger(store, clock)

	_, err := l.GetOrCreateUser(context.Background(), 7, "carol")
	require.NoError(t, err)
	_, err = l.IssueLicense(context.Background(), "KEY1", 30)
	require.NoError(t, err)
	require.NoError(t, l.ActivateLicense(context.Background(), 7, "KEY1"))

	for i := 0; i < 10; i++ {
		_, err := l.RecordUse(context.Background(), 7)
		require.NoError(t, err)
	}
	remaining, err := l.QuotaRemaining(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 0, remaining)

	// Midnight passes: the first read today resets the daily counter.
	clock.Advance(2 * time.Hour)
	remaining, err = l.QuotaRemaining(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 10, remaining)

	// The reset happened exactly once; further reads same day don't reset
	// progress made since.
	_, err = l.RecordUse(context.Background(), 7)
	require.NoError(t, err)
	remaining, err = l.QuotaRemaining(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 9, remaining)
}

func Test_RecordUse_PremiumCountsBoth(t *testing.T) {
	t.Parallel()
	store := newFakeLedgerStore()
	clock := newFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	l := testLedger(store, clock)

	_, err := l.GetOrCreateUser(context.Background(), 7, "carol")
	require.NoError(t, err)
	_, err = l.IssueLicense(context.Background(), "KEY1", 30)
	require.NoError(t, err)
	require.NoError(t, l.ActivateLicense(context.Background(), 7, "KEY1"))

	total, err := l.RecordUse(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 1, total)

	u, err := store.GetUser(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 1, u.LifetimeUses)
	require.Equal(t, 1, u.DailyUses)
}

func Test_License_OneShotLaw(t *testing.T) {
	t.Parallel()
	store := newFakeLedgerStore()
	clock := newFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	l := testLedger(store, clock)

	ctx := context.Background()
	_, err := l.GetOrCreateUser(ctx, 1, "u1")
	require.NoError(t, err)
	_, err = l.GetOrCreateUser(ctx, 2, "u2")
	require.NoError(t, err)
	_, err = l.IssueLicense(ctx, "SHAREDKEY", 30)
	require.NoError(t, err)

	require.NoError(t, l.ActivateLicense(ctx, 1, "SHAREDKEY"))
	require.ErrorIs(t, l.ActivateLicense(ctx, 2, "SHAREDKEY"), ErrLicenseAlreadyUsed)

	require.NoError(t, l.RevokeLicense(ctx, 1))
	require.NoError(t, l.ActivateLicense(ctx, 2, "SHAREDKEY"))

	u1, err := store.GetUser(ctx, 1)
	require.NoError(t, err)
	require.False(t, u1.Premium)
	require.Empty(t, u1.LicenseKey)
	u2, err := store.GetUser(ctx, 2)
	require.NoError(t, err)
	require.True(t, u2.Premium)
	require.Equal(t, "SHAREDKEY", u2.LicenseKey)
}

func Test_ActivateLicense_UnknownKey(t *testing.T) {
	t.Parallel()
	l := testLedger(newFakeLedgerStore(), newFakeClock(time.Now()))
	_, err := l.GetOrCreateUser(context.Background(), 1, "u1")
	require.NoError(t, err)
	require.ErrorIs(t, l.ActivateLicense(context.Background(), 1, "NOPE"), ErrLicenseNotFound)
}

func Test_RevokeLicense_NoActiveLicense(t *testing.T) {
	t.Parallel()
	l := testLedger(newFakeLedgerStore(), newFakeClock(time.Now()))
	_, err := l.GetOrCreateUser(context.Background(), 1, "u1")
	require.NoError(t, err)
	require.ErrorIs(t, l.RevokeLicense(context.Background(), 1), ErrNoActiveLicense)
}

func Test_RecordUse_ConcurrentNoLostUpdates(t *testing.T) {
	t.Parallel()
	store := newFakeLedgerStore()
	clock := newFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	l := testLedger(store, clock)

	_, err := l.GetOrCreateUser(context.Background(), 9, "dave")
	require.NoError(t, err)

	const n = 64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, _ = l.RecordUse(context.Background(), 9)
		}()
	}
	wg.Wait()

	u, err := store.GetUser(context.Background(), 9)
	require.NoError(t, err)
	require.Equal(t, n, u.LifetimeUses)
}

func Test_RandomLicenseKey(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(1))
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		key := RandomLicenseKey(r)
		require.Len(t, key, 16)
		require.Regexp(t, `^[A-Z0-9]{16}$`, key)
		seen[key] = true
	}
	require.Len(t, seen, 100)
}
