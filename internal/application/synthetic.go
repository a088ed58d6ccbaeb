package application

import (
	"math/rand"
	"sync"

	"github.com/Albkings1/bot/internal/domain"
)

// Static currency weights used to derive a plausible base price for a pair.
// Unknown codes fall back to 1.0.
var currencyWeight = map[string]float64{
	"EUR": 1.08,
	"GBP": 1.26,
	"USD": 1.0,
	"JPY": 0.0067,
	"CHF": 1.13,
	"AUD": 0.65,
}

func weightOf(code string) float64 {
	if w, ok := currencyWeight[code]; ok {
		return w
	}
	return 1.0
}

// lockedRand serializes access to a rand.Rand; quote requests run on
// concurrent handlers.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// Generator fabricates quotes when no real upstream data is obtainable.
// Synthetic quotes always land in the strong-signal strength range so the
// user experience stays uninterrupted.
type Generator struct {
	rand  *lockedRand
	clock Clock
}

func NewGenerator(r *rand.Rand, clock Clock) *Generator {
	if clock == nil {
		clock = realClock{}
	}
	return &Generator{rand: &lockedRand{r: r}, clock: clock}
}

func (g *Generator) Generate(pair domain.Pair) domain.Quote {
	base, quote, ok := domain.SplitPair(pair)
	if !ok {
		base, quote = "", ""
	}

	price := weightOf(base) / weightOf(quote)
	// ±0.5% uniform jitter
	price *= 1 + (g.rand.Float64()-0.5)*0.01

	spread := price * 0.0002
	bid := price - spread/2
	ask := price + spread/2

	strength := 0.85 + g.rand.Float64()*0.13

	trend := domain.TrendUp
	if g.rand.Intn(2) == 1 {
		trend = domain.TrendDown
	}

	return domain.Quote{
		Pair:      pair,
		Price:     price,
		Bid:       bid,
		Ask:       ask,
		Strength:  strength,
		Category:  domain.Classify(strength),
		Trend:     trend,
		Timestamp: g.clock.Now(),
		Synthetic: true,
	}
}
