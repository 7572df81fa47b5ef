package models

import "time"

// MatchStore is the persistence contract used by the matcher.
//
// Lookups that find nothing return a nil result and a nil error. Any error returned is a
// persistence failure and is not retried by the store.
type MatchStore interface {
	// GetMatch returns the target-side snapshot of the most recent match for source on targetPlatform
	// whose confidence is at least minConfidence and whose last verification is within maxAge.
	GetMatch(source Track, targetPlatform string, minConfidence float64, maxAge time.Duration) (*Track, error)

	// SaveMatch records a confirmed match. The row for the (source, target platform) key is updated in place.
	SaveMatch(source, target Track, confidence float64, verified bool) (*MatchRecord, error)

	// SaveFailedMatch appends a diagnostic row.
	SaveFailedMatch(source Track, targetPlatform, reason string) (*FailedMatchRecord, error)

	// GetMatchStatistics counts matches, verified matches and failures.
	GetMatchStatistics() (*MatchStatistics, error)

	// UpdateMatchVerification sets the verification flag of a match and refreshes its last verification time.
	UpdateMatchVerification(id string, verified bool) (*MatchRecord, error)
}

// MatchBrowser extends [MatchStore] with the read paths used by reports and review tooling.
type MatchBrowser interface {
	MatchStore
	GetMatchByID(id string) (*MatchRecord, error)
	ListMatches(criteria MatchCriteria) ([]*MatchRecord, error)
	ListFailedMatches(criteria FailureCriteria) ([]*FailedMatchRecord, error)
	ListMatchHistory(source Track, targetPlatform string) ([]*MatchHistoryEntry, error)
}
