package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/tunematch/internal/matcher"
	"github.com/desertthunder/tunematch/internal/models"
	"github.com/desertthunder/tunematch/internal/shared"
)

const catalogJSON = `{
  "platform": "youtube",
  "playlists": [
    {
      "id": "PL1",
      "title": "Road Trip",
      "tracks": [
        {"title": "Hey Ya", "artists": [{"name": "Outkast"}], "platform_id": "yt-heyya", "is_available": true}
      ]
    }
  ],
  "library": [
    {"title": "Hey Jude", "artists": [{"name": "The Beatles"}], "platform_id": "yt-jude", "is_available": true},
    {"title": "Roses", "artists": [{"name": "Outkast"}], "album_name": "Speakerboxxx / The Love Below", "platform_id": "yt-roses", "is_available": true},
    {"title": "Hey Ya", "artists": [{"name": "Outkast"}], "platform_id": "yt-heyya", "is_available": true}
  ]
}`

func newTestCatalog(t *testing.T, limit int) (*Catalog, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "youtube.json")
	if err := os.WriteFile(path, []byte(catalogJSON), 0644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	c, err := LoadCatalog(path, matcher.NewNormalizer(matcher.DefaultConfig().Normalization), limit)
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	return c, path
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("LoadCatalog", func(t *testing.T) {
		c, _ := newTestCatalog(t, 0)
		if c.Name() != "youtube" {
			t.Errorf("expected platform youtube, got %s", c.Name())
		}

		file := c.File()
		if len(file.Library) != 3 {
			t.Errorf("expected 3 library tracks after dedupe, got %d", len(file.Library))
		}
		for _, track := range file.Library {
			if track.Platform != "youtube" {
				t.Errorf("track %s should be stamped with the platform", track.PlatformID)
			}
		}
	})

	t.Run("LoadCatalog errors", func(t *testing.T) {
		norm := matcher.NewNormalizer(matcher.DefaultConfig().Normalization)
		dir := t.TempDir()

		if _, err := LoadCatalog(filepath.Join(dir, "missing.json"), norm, 0); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable for missing file, got %v", err)
		}

		bad := filepath.Join(dir, "bad.json")
		os.WriteFile(bad, []byte("{not json"), 0644)
		if _, err := LoadCatalog(bad, norm, 0); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable for malformed file, got %v", err)
		}

		noPlatform := filepath.Join(dir, "noplatform.json")
		os.WriteFile(noPlatform, []byte(`{"library": []}`), 0644)
		if _, err := LoadCatalog(noPlatform, norm, 0); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable without platform, got %v", err)
		}
	})

	t.Run("SearchTracks", func(t *testing.T) {
		c, _ := newTestCatalog(t, 0)

		results, err := c.SearchTracks(ctx, "Hey Ya! OutKast")
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if len(results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(results))
		}
		if results[0].PlatformID != "yt-heyya" {
			t.Errorf("expected best result first, got %s", results[0].PlatformID)
		}

		none, err := c.SearchTracks(ctx, "Bohemian Rhapsody")
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("expected no results, got %d", len(none))
		}

		empty, err := c.SearchTracks(ctx, "The")
		if err != nil || len(empty) != 0 {
			t.Errorf("filler-only query should return nothing, got (%v, %v)", empty, err)
		}
	})

	t.Run("SearchTracks limit", func(t *testing.T) {
		c, _ := newTestCatalog(t, 1)

		results, err := c.SearchTracks(ctx, "Hey Ya OutKast")
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if len(results) != 1 || results[0].PlatformID != "yt-heyya" {
			t.Errorf("expected only the best result, got %v", results)
		}
	})

	t.Run("SearchTracks cancelled", func(t *testing.T) {
		c, _ := newTestCatalog(t, 0)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := c.SearchTracks(cancelled, "Hey Ya"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("GetPlaylist", func(t *testing.T) {
		c, _ := newTestCatalog(t, 0)

		pl, err := c.GetPlaylist(ctx, "PL1")
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}
		if pl.Title != "Road Trip" || pl.Platform != "youtube" || len(pl.Tracks) != 1 {
			t.Errorf("unexpected playlist: %+v", pl)
		}

		pl.Tracks[0].Title = "changed"
		again, _ := c.GetPlaylist(ctx, "PL1")
		if again.Tracks[0].Title != "Hey Ya" {
			t.Error("GetPlaylist should return a copy")
		}

		if _, err := c.GetPlaylist(ctx, "missing"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("AddTracks and RemoveTracks", func(t *testing.T) {
		c, _ := newTestCatalog(t, 0)

		roses := models.Track{Title: "Roses", Platform: "youtube", PlatformID: "yt-roses"}
		heyYa := models.Track{Title: "Hey Ya", Platform: "youtube", PlatformID: "yt-heyya"}

		if err := c.AddTracks(ctx, "PL1", []models.Track{roses, heyYa}); err != nil {
			t.Fatalf("failed to add tracks: %v", err)
		}
		pl, _ := c.GetPlaylist(ctx, "PL1")
		if len(pl.Tracks) != 2 || pl.Tracks[1].PlatformID != "yt-roses" {
			t.Errorf("expected roses appended once, got %v", pl.Tracks)
		}

		if err := c.RemoveTracks(ctx, "PL1", []models.Track{heyYa}); err != nil {
			t.Fatalf("failed to remove tracks: %v", err)
		}
		pl, _ = c.GetPlaylist(ctx, "PL1")
		if len(pl.Tracks) != 1 || pl.Tracks[0].PlatformID != "yt-roses" {
			t.Errorf("expected only roses left, got %v", pl.Tracks)
		}

		foreign := models.Track{Title: "Roses", Platform: "spotify", PlatformID: "sp-roses"}
		if err := c.AddTracks(ctx, "PL1", []models.Track{foreign}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for foreign track, got %v", err)
		}
		if err := c.AddTracks(ctx, "missing", []models.Track{roses}); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("UpdatePlaylist and Save", func(t *testing.T) {
		c, path := newTestCatalog(t, 0)

		if err := c.UpdatePlaylist(ctx, &models.Playlist{ID: "PL1", Title: "Road Trip 2", Public: true}); err != nil {
			t.Fatalf("failed to update playlist: %v", err)
		}
		if err := c.UpdatePlaylist(ctx, &models.Playlist{ID: "missing"}); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}

		if err := c.Save(path); err != nil {
			t.Fatalf("failed to save catalog: %v", err)
		}

		reloaded, err := LoadCatalog(path, matcher.NewNormalizer(matcher.DefaultConfig().Normalization), 0)
		if err != nil {
			t.Fatalf("failed to reload catalog: %v", err)
		}
		pl, err := reloaded.GetPlaylist(ctx, "PL1")
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}
		if pl.Title != "Road Trip 2" || !pl.Public {
			t.Errorf("expected saved changes, got %+v", pl)
		}
	})
}
