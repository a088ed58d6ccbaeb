package httpserver

import (
	"context"
	"sync"
	"time"

	"github.com/Albkings1/bot/internal/application"
	"github.com/Albkings1/bot/internal/domain"
)

var _ application.LedgerStore = (*memLedgerStore)(nil)
var _ application.QuoteFetcher = (*staticFetcher)(nil)

// memLedgerStore keeps the ledger in maps. Good enough for handler tests
// and local runs without postgres.
type memLedgerStore struct {
	mu       sync.Mutex
	users    map[int64]domain.User
	licenses map[string]domain.License
}

func newMemLedgerStore() *memLedgerStore {
	return &memLedgerStore{
		users:    map[int64]domain.User{},
		licenses: map[string]domain.License{},
	}
}

func (m *memLedgerStore) GetUser(_ context.Context, id int64) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, application.ErrNotFound
	}
	return u, nil
}

func (m *memLedgerStore) CreateUser(_ context.Context, u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		m.users[u.ID] = u
	}
	return nil
}

func (m *memLedgerStore) ListUsers(_ context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memLedgerStore) ResetDaily(_ context.Context, id int64, today string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return application.ErrNotFound
	}
	if u.Premium && u.LastUseDate != today {
		u.DailyUses = 0
		u.LastUseDate = today
		m.users[id] = u
	}
	return nil
}

func (m *memLedgerStore) RecordUse(_ context.Context, id int64, today string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return 0, application.ErrNotFound
	}
	if u.Premium {
		if u.LastUseDate != today {
			u.DailyUses = 0
			u.LastUseDate = today
		}
		u.DailyUses++
	}
	u.LifetimeUses++
	m.users[id] = u
	return u.LifetimeUses, nil
}

func (m *memLedgerStore) IssueLicense(_ context.Context, l domain.License) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.licenses[l.Key] = l
	return nil
}

func (m *memLedgerStore) GetLicense(_ context.Context, key string) (domain.License, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.licenses[key]
	if !ok {
		return domain.License{}, application.ErrLicenseNotFound
	}
	return l, nil
}

func (m *memLedgerStore) ActivateLicense(_ context.Context, userID int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.licenses[key]
	if !ok {
		return application.ErrLicenseNotFound
	}
	if l.Used {
		return application.ErrLicenseAlreadyUsed
	}
	u, ok := m.users[userID]
	if !ok {
		return application.ErrNotFound
	}
	l.Used = true
	m.licenses[key] = l
	u.Premium = true
	u.LicenseKey = key
	m.users[userID] = u
	return nil
}

func (m *memLedgerStore) RevokeLicense(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok || !u.Premium || u.LicenseKey == "" {
		return application.ErrNoActiveLicense
	}
	if l, ok := m.licenses[u.LicenseKey]; ok {
		l.Used = false
		m.licenses[u.LicenseKey] = l
	}
	u.Premium = false
	u.LicenseKey = ""
	m.users[userID] = u
	return nil
}

type staticFetcher struct {
	quote domain.Quote
}

func (f *staticFetcher) Fetch(_ context.Context, pair domain.Pair, _ bool) domain.Quote {
	q := f.quote
	q.Pair = pair
	if q.Timestamp.IsZero() {
		q.Timestamp = time.Now().UTC()
	}
	return q
}

// NewInMemoryServer wires a Server on top of in-memory doubles.
func NewInMemoryServer() (*Server, *application.Ledger) {
	store := newMemLedgerStore()
	ledger := application.NewLedger(store, application.DefaultFreeLimit, application.DefaultPremiumDailyLimit)
	fetcher := &staticFetcher{quote: domain.Quote{
		Price:    1.0845,
		Bid:      1.0844,
		Ask:      1.0846,
		Strength: 0.91,
		Category: domain.CategoryStrongBuy,
		Trend:    domain.TrendUp,
	}}
	return NewServer(ledger, fetcher, nil), ledger
}
