package domain

import "time"

type Category string

const (
	CategoryStrongBuy    Category = "STRONG_BUY"
	CategoryModerateBuy  Category = "MODERATE_BUY"
	CategoryStrongSell   Category = "STRONG_SELL"
	CategoryModerateSell Category = "MODERATE_SELL"
	CategoryNeutral      Category = "NEUTRAL"
)

type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// Classify maps a [0,1] strength score to a signal category.
func Classify(strength float64) Category {
	switch {
	case strength >= 0.90:
		return CategoryStrongBuy
	case strength >= 0.75:
		return CategoryModerateBuy
	case strength <= 0.10:
		return CategoryStrongSell
	case strength <= 0.25:
		return CategoryModerateSell
	default:
		return CategoryNeutral
	}
}

// RecommendedDuration returns a trading-duration hint. No hint is given for
// a neutral trend or for strength below 0.75; low-confidence data must not
// advise action.
func RecommendedDuration(strength float64, trend Trend) (time.Duration, bool) {
	var base time.Duration
	switch trend {
	case TrendUp:
		base = 5 * time.Minute
	case TrendDown:
		base = 3 * time.Minute
	default:
		return 0, false
	}

	switch {
	case strength >= 0.90:
		return time.Duration(float64(base) * 1.5), true
	case strength >= 0.75:
		return base, true
	default:
		return 0, false
	}
}
