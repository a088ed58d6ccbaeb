package application

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnsupportedPair = errors.New("unsupported pair")

	// Upstream outcomes, recovered inside the pipeline.
	ErrRateLimited = errors.New("upstream rate limited")
	ErrBadResponse = errors.New("malformed upstream response")

	// Ledger outcomes, surfaced to the caller.
	ErrLicenseNotFound    = errors.New("license not found")
	ErrLicenseAlreadyUsed = errors.New("license already used")
	ErrNoActiveLicense    = errors.New("no active license")
	ErrQuotaExceeded      = errors.New("quota exceeded")
)
