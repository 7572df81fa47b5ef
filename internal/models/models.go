package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Artist is a credited performer on a [Track].
type Artist struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Track represents a song on one platform. Empty strings and zero values stand for absent metadata.
type Track struct {
	Title       string   `json:"title"`
	Artists     []Artist `json:"artists"`
	Platform    string   `json:"platform"`
	PlatformID  string   `json:"platform_id,omitempty"`
	AlbumName   string   `json:"album_name,omitempty"`
	DurationMS  int      `json:"duration_ms,omitempty"`
	IsAvailable bool     `json:"is_available"`
}

// UnmarshalJSON decodes a track. A missing is_available field means the track is available.
func (t *Track) UnmarshalJSON(data []byte) error {
	type plain Track
	decoded := plain{IsAvailable: true}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*t = Track(decoded)
	return nil
}

// ArtistNames returns the artist display names in credit order.
func (t Track) ArtistNames() []string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return names
}

// PrimaryArtist returns the first credited artist name, or "".
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

// SameAs reports whether both tracks carry the same platform and the same non-empty platform id.
func (t Track) SameAs(o Track) bool {
	return t.PlatformID != "" && t.Platform == o.Platform && t.PlatformID == o.PlatformID
}

// String formats the track as "Artist, Artist - Title".
func (t Track) String() string {
	artists := strings.Join(t.ArtistNames(), ", ")
	if artists == "" {
		return t.Title
	}
	return fmt.Sprintf("%s - %s", artists, t.Title)
}

// ArtistsFromNames builds an artist list from display names.
func ArtistsFromNames(names []string) []Artist {
	artists := make([]Artist, 0, len(names))
	for _, n := range names {
		artists = append(artists, Artist{Name: n})
	}
	return artists
}

// Playlist is the canonical playlist shape returned by a platform collaborator.
type Playlist struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Platform    string  `json:"platform"`
	Description string  `json:"description,omitempty"`
	OwnerID     string  `json:"owner_id,omitempty"`
	Public      bool    `json:"public"`
	Tracks      []Track `json:"tracks"`
}

// MatchRecord is a confirmed correspondence between one source track and one target track.
type MatchRecord struct {
	ID       string
	Sequence int

	SourcePlatform   string
	SourcePlatformID string
	SourceTitle      string
	SourceArtists    []string
	SourceAlbum      string

	TargetPlatform   string
	TargetPlatformID string
	TargetTitle      string
	TargetArtists    []string
	TargetAlbum      string

	Confidence       float64
	ManuallyVerified bool
	LastVerified     time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewMatchRecord snapshots source and target into an unsaved record.
func NewMatchRecord(source, target Track, confidence float64, verified bool, now time.Time) *MatchRecord {
	return &MatchRecord{
		SourcePlatform:   source.Platform,
		SourcePlatformID: source.PlatformID,
		SourceTitle:      source.Title,
		SourceArtists:    source.ArtistNames(),
		SourceAlbum:      source.AlbumName,
		TargetPlatform:   target.Platform,
		TargetPlatformID: target.PlatformID,
		TargetTitle:      target.Title,
		TargetArtists:    target.ArtistNames(),
		TargetAlbum:      target.AlbumName,
		Confidence:       confidence,
		ManuallyVerified: verified,
		LastVerified:     now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Validate checks both platforms are set and that confidence is within [0, 1].
//
// Platform ids are optional. A record without a source id is stored but never keyed, see [MatchRecord.Keyed].
func (m *MatchRecord) Validate() error {
	if m.SourcePlatform == "" || m.TargetPlatform == "" {
		return fmt.Errorf("source and target platforms are required")
	}
	if m.Confidence < 0 || m.Confidence > 1 {
		return fmt.Errorf("confidence must be within [0, 1], got %v", m.Confidence)
	}
	return nil
}

// Keyed reports whether the record has a source platform id, and so a cache key. Keyed records
// are upserted, the rest are appended.
func (m *MatchRecord) Keyed() bool {
	return m.SourcePlatformID != ""
}

// Key returns the cache key "source_platform:source_id->target_platform".
func (m *MatchRecord) Key() string {
	return MatchKey(m.SourcePlatform, m.SourcePlatformID, m.TargetPlatform)
}

// SourceTrack reconstructs the source-side snapshot.
func (m *MatchRecord) SourceTrack() Track {
	return Track{
		Title:       m.SourceTitle,
		Artists:     ArtistsFromNames(m.SourceArtists),
		Platform:    m.SourcePlatform,
		PlatformID:  m.SourcePlatformID,
		AlbumName:   m.SourceAlbum,
		IsAvailable: true,
	}
}

// TargetTrack reconstructs the target-side snapshot.
func (m *MatchRecord) TargetTrack() Track {
	return Track{
		Title:       m.TargetTitle,
		Artists:     ArtistsFromNames(m.TargetArtists),
		Platform:    m.TargetPlatform,
		PlatformID:  m.TargetPlatformID,
		AlbumName:   m.TargetAlbum,
		IsAvailable: true,
	}
}

// MatchKey formats the cache key for a source track and target platform.
func MatchKey(sourcePlatform, sourceID, targetPlatform string) string {
	return fmt.Sprintf("%s:%s->%s", sourcePlatform, sourceID, targetPlatform)
}

// FailedMatchRecord is a diagnostic row for a rejected or impossible match attempt.
type FailedMatchRecord struct {
	ID               string
	SourcePlatform   string
	SourcePlatformID string
	SourceTitle      string
	SourceArtists    []string
	TargetPlatform   string
	ErrorReason      string
	CreatedAt        time.Time
}

// NewFailedMatchRecord snapshots the source track into an unsaved failure record.
func NewFailedMatchRecord(source Track, targetPlatform, reason string, now time.Time) *FailedMatchRecord {
	return &FailedMatchRecord{
		SourcePlatform:   source.Platform,
		SourcePlatformID: source.PlatformID,
		SourceTitle:      source.Title,
		SourceArtists:    source.ArtistNames(),
		TargetPlatform:   targetPlatform,
		ErrorReason:      reason,
		CreatedAt:        now,
	}
}

// MatchHistoryEntry records one save of a match key.
type MatchHistoryEntry struct {
	ID               string
	MatchID          string
	SourcePlatform   string
	SourcePlatformID string
	TargetPlatform   string
	TargetPlatformID string
	TargetTitle      string
	TargetArtists    []string
	TargetAlbum      string
	Confidence       float64
	ManuallyVerified bool
	RecordedAt       time.Time
}

// MatchStatistics holds simple counts over the store.
type MatchStatistics struct {
	TotalMatches    int `json:"total_matches"`
	VerifiedMatches int `json:"verified_matches"`
	FailedMatches   int `json:"failed_matches"`
}

// MatchCriteria filters [MatchRecord] listings. Zero values match everything.
type MatchCriteria struct {
	SourcePlatform string
	TargetPlatform string
	Verified       *bool
	MaxConfidence  float64 // Exclusive upper bound, ignored when zero
	Limit          int
}

// FailureCriteria filters [FailedMatchRecord] listings. Zero values match everything.
type FailureCriteria struct {
	SourcePlatform string
	TargetPlatform string
	Limit          int
}
