package domain

import "time"

// Quote is a single signal produced by the pipeline. It is immutable once
// built; a refresh replaces the whole value.
type Quote struct {
	Pair      Pair
	Price     float64
	Bid       float64
	Ask       float64
	Strength  float64
	Category  Category
	Trend     Trend
	Timestamp time.Time
	Synthetic bool
}

// Rate is a raw upstream exchange rate before signal derivation.
type Rate struct {
	Price     float64
	Bid       float64
	Ask       float64
	Timestamp time.Time
}
