package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/desertthunder/tunematch/internal/matcher"
	"github.com/desertthunder/tunematch/internal/models"
	"github.com/desertthunder/tunematch/internal/shared"
)

// CatalogFile is the on-disk layout of a [Catalog].
type CatalogFile struct {
	Platform  string            `json:"platform"`
	Playlists []models.Playlist `json:"playlists"`
	Library   []models.Track    `json:"library"`
}

// Catalog implements [Service] for a single platform backed by a JSON file.
type Catalog struct {
	mu        sync.RWMutex
	platform  string
	playlists map[string]*models.Playlist
	order     []string
	library   []models.Track
	norm      *matcher.Normalizer
	limit     int
}

// LoadCatalog reads a catalog file. Search results are capped at limit when it is positive.
func LoadCatalog(path string, norm *matcher.Normalizer, limit int) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read catalog: %w", shared.ErrServiceUnavailable, err)
	}

	var file CatalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: failed to parse catalog %s: %w", shared.ErrServiceUnavailable, path, err)
	}
	if file.Platform == "" {
		return nil, fmt.Errorf("%w: catalog %s has no platform", shared.ErrServiceUnavailable, path)
	}

	return NewCatalog(file, norm, limit), nil
}

// NewCatalog builds a catalog from its file contents.
//
// Tracks in playlists are searchable alongside the library. Every track is stamped with the
// catalog platform.
func NewCatalog(file CatalogFile, norm *matcher.Normalizer, limit int) *Catalog {
	c := &Catalog{
		platform:  file.Platform,
		playlists: make(map[string]*models.Playlist, len(file.Playlists)),
		norm:      norm,
		limit:     limit,
	}

	seen := make(map[string]bool)
	addToLibrary := func(t models.Track) {
		if t.PlatformID != "" {
			if seen[t.PlatformID] {
				return
			}
			seen[t.PlatformID] = true
		}
		c.library = append(c.library, t)
	}

	for _, t := range file.Library {
		t.Platform = file.Platform
		addToLibrary(t)
	}

	for i := range file.Playlists {
		pl := file.Playlists[i]
		pl.Platform = file.Platform
		pl.Tracks = append([]models.Track(nil), pl.Tracks...)
		for j := range pl.Tracks {
			pl.Tracks[j].Platform = file.Platform
			addToLibrary(pl.Tracks[j])
		}
		c.playlists[pl.ID] = &pl
		c.order = append(c.order, pl.ID)
	}

	return c
}

// Name returns the catalog platform.
func (c *Catalog) Name() string { return c.platform }

// SearchTracks ranks library tracks by how many normalized query tokens appear in their title,
// artists or album. Tracks sharing no token are not returned.
func (c *Catalog) SearchTracks(ctx context.Context, query string) ([]models.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms := strings.Fields(c.norm.Normalize(query))
	if len(terms) == 0 {
		return []models.Track{}, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	type hit struct {
		track models.Track
		score int
	}

	var hits []hit
	for _, t := range c.library {
		tokens := make(map[string]bool)
		for _, f := range strings.Fields(c.norm.Normalize(t.Title + " " + strings.Join(t.ArtistNames(), " ") + " " + t.AlbumName)) {
			tokens[f] = true
		}

		score := 0
		for _, term := range terms {
			if tokens[term] {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, hit{track: t, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	results := make([]models.Track, 0, len(hits))
	for _, h := range hits {
		if c.limit > 0 && len(results) == c.limit {
			break
		}
		results = append(results, h.track)
	}
	return results, nil
}

// GetPlaylist returns a copy of the playlist with the given id.
func (c *Catalog) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	pl, ok := c.playlists[playlistID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	found := *pl
	found.Tracks = append([]models.Track(nil), pl.Tracks...)
	return &found, nil
}

// AddTracks appends tracks to a playlist, skipping tracks it already contains.
func (c *Catalog) AddTracks(ctx context.Context, playlistID string, tracks []models.Track) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.checkPlatform(tracks); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pl, ok := c.playlists[playlistID]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	for _, t := range tracks {
		if !containsTrack(pl.Tracks, t) {
			pl.Tracks = append(pl.Tracks, t)
		}
	}
	return nil
}

// RemoveTracks removes every occurrence of the given tracks from a playlist.
func (c *Catalog) RemoveTracks(ctx context.Context, playlistID string, tracks []models.Track) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pl, ok := c.playlists[playlistID]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	kept := pl.Tracks[:0]
	for _, t := range pl.Tracks {
		if !containsTrack(tracks, t) {
			kept = append(kept, t)
		}
	}
	pl.Tracks = kept
	return nil
}

// UpdatePlaylist replaces the title, description and visibility of an existing playlist.
func (c *Catalog) UpdatePlaylist(ctx context.Context, playlist *models.Playlist) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pl, ok := c.playlists[playlist.ID]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlist.ID)
	}

	pl.Title = playlist.Title
	pl.Description = playlist.Description
	pl.Public = playlist.Public
	return nil
}

// File returns the current catalog contents.
func (c *Catalog) File() CatalogFile {
	c.mu.RLock()
	defer c.mu.RUnlock()

	file := CatalogFile{Platform: c.platform, Library: append([]models.Track(nil), c.library...)}
	for _, id := range c.order {
		pl := *c.playlists[id]
		pl.Tracks = append([]models.Track(nil), pl.Tracks...)
		file.Playlists = append(file.Playlists, pl)
	}
	return file
}

// Save writes the catalog to path as indented JSON.
func (c *Catalog) Save(path string) error {
	data, err := shared.MarshalJSON(c.File(), true)
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	return nil
}

func (c *Catalog) checkPlatform(tracks []models.Track) error {
	for _, t := range tracks {
		if t.Platform != c.platform {
			return fmt.Errorf("%w: track %q belongs to %q, not %q", shared.ErrInvalidInput, t.Title, t.Platform, c.platform)
		}
	}
	return nil
}

func containsTrack(tracks []models.Track, t models.Track) bool {
	for _, existing := range tracks {
		if existing.SameAs(t) {
			return true
		}
	}
	return false
}
