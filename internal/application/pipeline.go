package application

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/Albkings1/bot/internal/domain"
)

const (
	DefaultCacheTTL   = 5 * time.Minute
	DefaultMaxRetries = 3
	DefaultRetryDelay = 2 * time.Second
)

// Credentials are the two upstream key slots. Premium callers degrade to the
// shared free key before degrading to synthetic data.
type Credentials struct {
	Free    string
	Premium string
}

func (c Credentials) ordered(premium bool) []string {
	if premium {
		return []string{c.Premium, c.Free}
	}
	return []string{c.Free}
}

// PipelineConfig tunes the cache and retry ladder. Zero values take the
// package defaults.
type PipelineConfig struct {
	Credentials Credentials
	TTL         time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
}

// Pipeline fetches quotes upstream, classifies them, maintains the per-pair
// cache and falls back to synthetic data. Fetch never fails.
type Pipeline struct {
	cache    QuoteCache
	provider RateProvider
	gen      *Generator

	creds      Credentials
	ttl        time.Duration
	maxRetries int
	retryDelay time.Duration

	rand  *lockedRand
	clock Clock
	log   *zap.Logger
}

var _ QuoteFetcher = (*Pipeline)(nil)

type PipelineOption func(*Pipeline)

func WithPipelineClock(c Clock) PipelineOption {
	return func(p *Pipeline) { p.clock = c }
}

func WithPipelineRand(r *rand.Rand) PipelineOption {
	return func(p *Pipeline) { p.rand = &lockedRand{r: r} }
}

func WithPipelineLogger(l *zap.Logger) PipelineOption {
	return func(p *Pipeline) { p.log = l }
}

func NewPipeline(cache QuoteCache, provider RateProvider, gen *Generator, cfg PipelineConfig, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		cache:      cache,
		provider:   provider,
		gen:        gen,
		creds:      cfg.Credentials,
		ttl:        cfg.TTL,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
	if p.ttl <= 0 {
		p.ttl = DefaultCacheTTL
	}
	if p.maxRetries <= 0 {
		p.maxRetries = DefaultMaxRetries
	}
	if p.retryDelay <= 0 {
		p.retryDelay = DefaultRetryDelay
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.clock == nil {
		p.clock = realClock{}
	}
	if p.rand == nil {
		p.rand = &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	return p
}

// Fetch returns the freshest quote available for pair: the cached entry when
// it is inside the TTL window, otherwise an upstream fetch through the
// credential ladder, otherwise a synthetic quote.
func (p *Pipeline) Fetch(ctx context.Context, pair domain.Pair, premium bool) domain.Quote {
	if q, fetchedAt, err := p.cache.Get(ctx, pair); err == nil {
		if age := p.clock.Now().Sub(fetchedAt); age < p.ttl {
			p.log.Debug("cache_hit",
				zap.String("pair", string(pair)),
				zap.Duration("age", age),
			)
			return q
		}
	} else if !errors.Is(err, ErrNotFound) {
		p.log.Warn("cache_get_failed", zap.String("pair", string(pair)), zap.Error(err))
	}

	for _, key := range p.creds.ordered(premium) {
		rate, err := p.fetchWithRetry(ctx, pair, key)
		if err == nil {
			q := p.buildQuote(pair, rate)
			p.store(ctx, q)
			return q
		}
		p.log.Warn("credential_exhausted",
			zap.String("pair", string(pair)),
			zap.Bool("rate_limited", errors.Is(err, ErrRateLimited)),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			break
		}
	}

	q := p.gen.Generate(pair)
	p.log.Info("synthetic_fallback", zap.String("pair", string(pair)))
	p.store(ctx, q)
	return q
}

// fetchWithRetry runs up to maxRetries attempts against one credential with
// a constant inter-attempt delay. Rate-limit, transport and parse errors all
// follow the same retry policy.
func (p *Pipeline) fetchWithRetry(ctx context.Context, pair domain.Pair, apiKey string) (domain.Rate, error) {
	var rate domain.Rate
	op := func() error {
		r, err := p.provider.Rate(ctx, pair, apiKey)
		if err != nil {
			return err
		}
		rate = r
		return nil
	}
	notify := func(err error, _ time.Duration) {
		p.log.Debug("fetch_attempt_failed", zap.String("pair", string(pair)), zap.Error(err))
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.retryDelay), uint64(p.maxRetries-1)),
		ctx,
	)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return domain.Rate{}, err
	}
	return rate, nil
}

// buildQuote derives the signal from a raw rate. The bid/ask spread is the
// volatility proxy: a tight spread reads as an upward trend, a wide one as
// downward. Neutral signals are deliberately weakened so they rarely cross
// the moderate threshold.
func (p *Pipeline) buildQuote(pair domain.Pair, rate domain.Rate) domain.Quote {
	var spreadPct float64
	if rate.Price != 0 {
		spreadPct = (rate.Ask - rate.Bid) / rate.Price
	}

	trend := domain.TrendNeutral
	switch {
	case spreadPct < 0.0001:
		trend = domain.TrendUp
	case spreadPct > 0.0003:
		trend = domain.TrendDown
	}

	strength := clamp(1-spreadPct*1000, 0, 1)
	if trend != domain.TrendNeutral {
		strength *= 0.8 + 0.4*p.rand.Float64()
	} else {
		strength *= 0.5
	}
	strength = clamp(strength, 0, 1)

	ts := rate.Timestamp
	if ts.IsZero() {
		ts = p.clock.Now()
	}

	return domain.Quote{
		Pair:      pair,
		Price:     rate.Price,
		Bid:       rate.Bid,
		Ask:       rate.Ask,
		Strength:  strength,
		Category:  domain.Classify(strength),
		Trend:     trend,
		Timestamp: ts,
	}
}

func (p *Pipeline) store(ctx context.Context, q domain.Quote) {
	if err := p.cache.Put(ctx, q, p.clock.Now()); err != nil {
		p.log.Warn("cache_put_failed", zap.String("pair", string(q.Pair)), zap.Error(err))
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
