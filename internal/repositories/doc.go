// Package repositories implements the match store: confirmed matches, failure diagnostics and
// match history.
//
// Key Implementations:
//   - [MatchRepository] : SQLite persistence with upsert on (source_platform, source_platform_id, target_platform)
//   - [MemoryStore] : Process-local store with the same contract, for dry runs and tests
//
// Both satisfy [models.MatchBrowser]. Lookups that find nothing return (nil, nil); storage failures are
// wrapped with [shared.ErrStorage] and never retried.
//
// Sequence numbers provide stable, human-readable ordering (e.g., match #42) independent of UUIDs and timestamps.
// The [NextSequence] function increments per-table sequence counters in dedicated sequence tables, inside the caller's transaction.
package repositories
