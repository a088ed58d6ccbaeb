package domain

import "regexp"

type Pair string

// DefaultPairs is the set of instruments offered to users.
var DefaultPairs = []Pair{
	"EUR/USD",
	"GBP/USD",
	"USD/JPY",
	"USD/CHF",
	"AUD/USD",
	"EUR/GBP",
	"EUR/JPY",
}

var pairRe = regexp.MustCompile(`^[A-Z]{3}/[A-Z]{3}$`)

func ValidatePair(p string) bool {
	if !pairRe.MatchString(p) {
		return false
	}
	// Disallow identical base/quote
	return p[:3] != p[4:]
}

// SplitPair returns the base and quote currency codes.
func SplitPair(p Pair) (string, string, bool) {
	if !ValidatePair(string(p)) {
		return "", "", false
	}
	return string(p)[:3], string(p)[4:], true
}
