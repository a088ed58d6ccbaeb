package domain

import "time"

// License is a single-use entitlement token. Used flips back to false on
// revocation, which makes the key activatable again.
type License struct {
	Key          string
	DurationDays int
	CreatedAt    time.Time
	Used         bool
}
