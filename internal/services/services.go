// package services defines interface Service for reaching music catalogs
package services

import (
	"context"
	"strings"

	"github.com/desertthunder/tunematch/internal/models"
)

// Service is the collaborator contract for a music catalog. Implementations own authentication,
// pagination, rate limiting and conversion into the canonical [models.Track] and [models.Playlist].
type Service interface {
	// Name returns the platform name used in [models.Track.Platform] (e.g. "spotify", "youtube").
	Name() string

	// SearchTracks returns candidate tracks for a free text query, best first.
	SearchTracks(ctx context.Context, query string) ([]models.Track, error)

	// GetPlaylist retrieves a playlist with all of its tracks.
	GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// AddTracks appends tracks to a playlist.
	AddTracks(ctx context.Context, playlistID string, tracks []models.Track) error

	// RemoveTracks removes tracks from a playlist.
	RemoveTracks(ctx context.Context, playlistID string, tracks []models.Track) error

	// UpdatePlaylist replaces a playlist's title, description and visibility.
	UpdatePlaylist(ctx context.Context, playlist *models.Playlist) error
}

// BuildSearchQuery builds the candidate search query for a source track: its title followed by its
// primary artist.
func BuildSearchQuery(track models.Track) string {
	return strings.TrimSpace(strings.TrimSpace(track.Title) + " " + strings.TrimSpace(track.PrimaryArtist()))
}
