// Package models defines the canonical track shapes and match persistence contract for tunematch.
//
// The package contains two categories of types:
//
// 1. Canonical DTOs: values produced by the platform conversion layer and consumed by the matcher
//   - [Artist] : Display name with optional platform id and url
//   - [Track] : Song metadata keyed by (platform, platform id)
//   - [Playlist] : Ordered tracks on one platform
//
// 2. Persistent records: rows owned exclusively by a [MatchStore]
//   - [MatchRecord] : Confirmed correspondence between a source and a target track
//   - [FailedMatchRecord] : Append-only diagnostic for a rejected match attempt
//   - [MatchHistoryEntry] : One save of a match key, kept even after the record is overwritten
//
// Records are denormalized snapshots: they copy titles, artist names and albums instead of
// referencing tracks, since source tracks may change or disappear later.
package models
