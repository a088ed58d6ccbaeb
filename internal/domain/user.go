package domain

import "time"

// User is one ledger record per chat user. Records are created on first
// interaction and never deleted; counters only reset.
type User struct {
	ID           int64
	Username     string
	Premium      bool
	LifetimeUses int
	DailyUses    int
	LastUseDate  string // calendar date, YYYY-MM-DD
	LicenseKey   string // empty when no active license
	JoinedAt     time.Time
}

// DateFormat is the calendar-day granularity used by quota rollover.
const DateFormat = "2006-01-02"
