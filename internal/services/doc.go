// Package services defines the [Service] interface for music catalogs and implements it for offline catalog files.
//
// # Service Interface
//
// All catalogs implement a common abstraction, enabling playlist matching to work uniformly across platforms.
// Candidate searches use [BuildSearchQuery] so every platform sees the same query for a source track.
//
// # Catalog Implementation
//
// [Catalog] serves one platform from a JSON file holding its playlists and a searchable track library.
// Searches rank tracks by the number of normalized query tokens they contain.
// Playlist changes are kept in memory until [Catalog.Save] writes them back.
//
// # Error Handling
//
// Catalogs use typed errors from shared package:
//   - [shared.ErrPlaylistNotFound] : Playlist ID not found
//   - [shared.ErrServiceUnavailable] : Catalog file missing or malformed
//   - [shared.ErrInvalidInput] : Tracks from another platform passed to a playlist mutation
package services
