package application

import (
	"context"
	"sync"
	"time"

	"github.com/Albkings1/bot/internal/domain"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeLedgerStore struct {
	mu       sync.Mutex
	users    map[int64]domain.User
	licenses map[string]domain.License
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{
		users:    map[int64]domain.User{},
		licenses: map[string]domain.License{},
	}
}

func (f *fakeLedgerStore) GetUser(_ context.Context, id int64) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return u, nil
}

func (f *fakeLedgerStore) CreateUser(_ context.Context, u domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.ID]; !ok {
		f.users[u.ID] = u
	}
	return nil
}

func (f *fakeLedgerStore) ListUsers(_ context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeLedgerStore) ResetDaily(_ context.Context, id int64, today string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return ErrNotFound
	}
	if u.Premium && u.LastUseDate != today {
		u.DailyUses = 0
		u.LastUseDate = today
		f.users[id] = u
	}
	return nil
}

func (f *fakeLedgerStore) RecordUse(_ context.Context, id int64, today string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return 0, ErrNotFound
	}
	if u.Premium {
		if u.LastUseDate != today {
			u.DailyUses = 0
			u.LastUseDate = today
		}
		u.DailyUses++
	}
	u.LifetimeUses++
	f.users[id] = u
	return u.LifetimeUses, nil
}

func (f *fakeLedgerStore) IssueLicense(_ context.Context, l domain.License) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.licenses[l.Key] = l
	return nil
}

func (f *fakeLedgerStore) GetLicense(_ context.Context, key string) (domain.License, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.licenses[key]
	if !ok {
		return domain.License{}, ErrLicenseNotFound
	}
	return l, nil
}

func (f *fakeLedgerStore) ActivateLicense(_ context.Context, userID int64, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.licenses[key]
	if !ok {
		return ErrLicenseNotFound
	}
	if l.Used {
		return ErrLicenseAlreadyUsed
	}
	u, ok := f.users[userID]
	if !ok {
		return ErrNotFound
	}
	l.Used = true
	f.licenses[key] = l
	u.Premium = true
	u.LicenseKey = key
	f.users[userID] = u
	return nil
}

func (f *fakeLedgerStore) RevokeLicense(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok || !u.Premium || u.LicenseKey == "" {
		return ErrNoActiveLicense
	}
	if l, ok := f.licenses[u.LicenseKey]; ok {
		l.Used = false
		f.licenses[u.LicenseKey] = l
	}
	u.Premium = false
	u.LicenseKey = ""
	f.users[userID] = u
	return nil
}

type fakeCache struct {
	mu        sync.Mutex
	quotes    map[domain.Pair]domain.Quote
	fetchedAt map[domain.Pair]time.Time
	getErr    error
	putErr    error
	puts      int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		quotes:    map[domain.Pair]domain.Quote{},
		fetchedAt: map[domain.Pair]time.Time{},
	}
}

func (f *fakeCache) Get(_ context.Context, pair domain.Pair) (domain.Quote, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return domain.Quote{}, time.Time{}, f.getErr
	}
	q, ok := f.quotes[pair]
	if !ok {
		return domain.Quote{}, time.Time{}, ErrNotFound
	}
	return q, f.fetchedAt[pair], nil
}

func (f *fakeCache) Put(_ context.Context, q domain.Quote, fetchedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.quotes[q.Pair] = q
	f.fetchedAt[q.Pair] = fetchedAt
	f.puts++
	return nil
}

// fakeProvider replays a script of outcomes and records the credential used
// on each call.
type fakeProvider struct {
	mu     sync.Mutex
	script []fakeOutcome
	calls  int
	keys   []string
}

type fakeOutcome struct {
	rate domain.Rate
	err  error
}

func (f *fakeProvider) Rate(_ context.Context, _ domain.Pair, apiKey string) (domain.Rate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, apiKey)
	i := f.calls
	f.calls++
	if i >= len(f.script) {
		if len(f.script) == 0 {
			return domain.Rate{}, ErrRateLimited
		}
		return f.script[len(f.script)-1].rate, f.script[len(f.script)-1].err
	}
	return f.script[i].rate, f.script[i].err
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeFetcher struct {
	mu    sync.Mutex
	quote domain.Quote
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, pair domain.Pair, _ bool) domain.Quote {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	q := f.quote
	q.Pair = pair
	return q
}

type fakeNotifier struct {
	mu      sync.Mutex
	sent    map[int64][]string
	failFor map[int64]bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: map[int64][]string{}, failFor: map[int64]bool{}}
}

func (f *fakeNotifier) Send(_ context.Context, userID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[userID] {
		return ErrNotFound
	}
	f.sent[userID] = append(f.sent[userID], text)
	return nil
}
