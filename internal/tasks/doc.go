// Package tasks orchestrates playlist matching between music catalogs with real-time progress reporting.
//
// # Core Operations
//
// The [SyncEngine] interface defines three operations:
//
//  1. [SyncEngine.Run] : Match a playlist onto another catalog
//     - Fetches the source and destination playlists
//     - Searches each distinct, available source track on the destination catalog
//     - Scores candidates with the [matcher.TrackMatcher], reusing cached matches
//     - Adds accepted matches to the destination playlist
//
//  2. [SyncEngine.Diff] : Compare playlists across catalogs
//     - Fetches both playlists
//     - Pairs tracks by match score without touching the match store
//     - Reports matched pairs, missing tracks, and extra tracks
//
//  3. [SyncEngine.Sync] : Bring a destination playlist in line with its source
//     - Runs a match and adds accepted tracks
//     - Copies the source title and description to the destination
//     - With pruning, removes the extra tracks Diff reports
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Concurrency
//
// Searches run on a bounded worker pool throttled by a token bucket from golang.org/x/time/rate.
// The first match store failure cancels the remaining searches.
package tasks
