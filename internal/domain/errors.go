package domain

import "errors"

// Error kinds surfaced by the directory core. Callers discriminate with
// errors.Is; everything else wraps one of these or is an internal failure.
var (
	// ErrConflict: a claim hit a record already owned by a different user,
	// or the conditional claim update lost a race.
	ErrConflict = errors.New("store already claimed")

	// ErrNotFound: no matching record and not enough data to synthesize one.
	ErrNotFound = errors.New("store not found")

	// ErrSourceUnavailable: a collector source failed. Non-fatal, the merge
	// continues with the remaining sources.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrPersistence: a backend write failed. No partial state is left
	// behind; the caller may retry.
	ErrPersistence = errors.New("persistence failure")
)
