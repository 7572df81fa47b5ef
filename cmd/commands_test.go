package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunematch/internal/matcher"
	"github.com/desertthunder/tunematch/internal/models"
	"github.com/desertthunder/tunematch/internal/repositories"
	"github.com/desertthunder/tunematch/internal/services"
	"github.com/desertthunder/tunematch/internal/shared"
	tu "github.com/desertthunder/tunematch/internal/testing"
)

var (
	heyYa = models.Track{
		Title:       "Hey Ya!",
		Artists:     models.ArtistsFromNames([]string{"OutKast"}),
		AlbumName:   "Speakerboxxx/The Love Below",
		PlatformID:  "sp-heyya",
		IsAvailable: true,
	}
	ytHeyYa = models.Track{
		Title:       "Hey Ya",
		Artists:     models.ArtistsFromNames([]string{"Outkast"}),
		AlbumName:   "Speakerboxxx / The Love Below",
		PlatformID:  "yt-heyya",
		IsAvailable: true,
	}
	ytJude = models.Track{
		Title:       "Hey Jude",
		Artists:     models.ArtistsFromNames([]string{"The Beatles"}),
		AlbumName:   "Past Masters",
		PlatformID:  "yt-jude",
		IsAvailable: true,
	}
)

type harness struct {
	runner *Runner
	store  *repositories.MemoryStore
	output *bytes.Buffer
	logs   *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:  repositories.NewMemoryStore(true),
		output: &bytes.Buffer{},
		logs:   &bytes.Buffer{},
	}
	h.runner = NewRunner(RunnerOpts{
		Store:  h.store,
		Logger: log.New(h.logs),
		Output: h.output,
	})
	return h
}

func (h *harness) run(args ...string) error {
	return newApp(h.runner).Run(context.Background(), append([]string{"tunematch"}, args...))
}

func (h *harness) seed(t *testing.T) *models.MatchRecord {
	t.Helper()
	source := heyYa
	source.Platform = "spotify"
	target := ytHeyYa
	target.Platform = "youtube"

	record, err := h.store.SaveMatch(source, target, 0.85, false)
	if err != nil {
		t.Fatalf("failed to seed match: %v", err)
	}
	if _, err := h.store.SaveFailedMatch(models.Track{Title: "Nothing", Platform: "spotify", PlatformID: "sp-none"}, "youtube", "No candidates available"); err != nil {
		t.Fatalf("failed to seed failure: %v", err)
	}
	return record
}

func writeCatalog(t *testing.T, dir, name string, file services.CatalogFile) string {
	t.Helper()
	data, err := shared.MarshalJSON(file, true)
	if err != nil {
		t.Fatalf("failed to encode catalog: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
	return path
}

func setupCatalogs(t *testing.T, destTracks []models.Track) (string, string) {
	t.Helper()
	dir := t.TempDir()
	source := writeCatalog(t, dir, "spotify.json", services.CatalogFile{
		Platform:  "spotify",
		Playlists: []models.Playlist{{ID: "src", Title: "Road Trip", Tracks: []models.Track{heyYa}}},
	})
	dest := writeCatalog(t, dir, "youtube.json", services.CatalogFile{
		Platform:  "youtube",
		Playlists: []models.Playlist{{ID: "dst", Title: "Road Trip", Tracks: destTracks}},
		Library:   []models.Track{ytJude, ytHeyYa},
	})
	return source, dest
}

func TestConfigure(t *testing.T) {
	t.Run("loads config file and log level", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		data := "[log]\nlevel = \"debug\"\n\n[store]\nengine = \"memory\"\n"
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: log.New(&bytes.Buffer{}), Output: output})
		if err := newApp(runner).Run(context.Background(), []string{"tunematch", "--config", path, "stats"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if runner.config.Store.Engine != "memory" {
			t.Errorf("expected memory engine from config, got %s", runner.config.Store.Engine)
		}
		if runner.logger.GetLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", runner.logger.GetLevel())
		}
		if !strings.Contains(output.String(), "Matches:  0") {
			t.Errorf("expected stats output, got %s", output.String())
		}
	})

	t.Run("log level flag overrides config", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("--log-level", "error", "stats"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if h.runner.logger.GetLevel() != log.ErrorLevel {
			t.Errorf("expected error level, got %v", h.runner.logger.GetLevel())
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[matcher]\ntitle_weight = 2.0\n"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		h := newHarness(t)
		if err := h.run("--config", path, "stats"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("invalid log level", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("--log-level", "loud", "stats"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("missing config file keeps defaults", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("--config", filepath.Join(t.TempDir(), "missing.toml"), "stats"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if h.runner.config.Store.Engine != "sqlite" {
			t.Errorf("expected default engine, got %s", h.runner.config.Store.Engine)
		}
	})
}

func TestSetupDatabase(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(dir, "tunematch.db")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Config: config, ConfigPath: configPath, Logger: log.New(&bytes.Buffer{}), Output: output})

	// configure would replace the config with the written template, so call the action directly.
	if err := runner.SetupDatabase(context.Background(), nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	tu.AssertFileExists(t, configPath)
	tu.AssertFileExists(t, config.Database.Path)
	if !strings.Contains(output.String(), "Database ready") {
		t.Errorf("expected setup output, got %s", output.String())
	}
}

func TestMatchCommands(t *testing.T) {
	t.Run("score", func(t *testing.T) {
		h := newHarness(t)
		err := h.run("match", "score",
			"--source-title", "Hey Ya!", "--source-artist", "OutKast",
			"--target-title", "Hey Ya", "--target-artist", "Outkast",
			"--json", "--pretty=false",
		)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var out scoreOutput
		if err := json.Unmarshal(h.output.Bytes(), &out); err != nil {
			t.Fatalf("failed to decode output: %v", err)
		}
		// both albums missing costs half the album weight
		if out.Score != 0.9 || out.Band != "high" || out.Title != 1 || out.Artist != 1 || out.Album != 0.5 {
			t.Errorf("unexpected score output: %+v", out)
		}
	})

	t.Run("score plain", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("match", "score", "--source-title", "Roses", "--target-title", "Roses"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "Score: 0.6000 (low)") {
			t.Errorf("unexpected output: %s", h.output.String())
		}
	})

	t.Run("score requires titles", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("match", "score", "--source-title", "Roses"); err == nil {
			t.Error("expected error for missing target title")
		}
	})

	t.Run("run adds accepted tracks", func(t *testing.T) {
		h := newHarness(t)
		source, dest := setupCatalogs(t, nil)

		err := h.run("match", "run",
			"--source", source, "--dest", dest,
			"--source-playlist", "src", "--dest-playlist", "dst",
			"--save",
		)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		output := h.output.String()
		for _, want := range []string{"Match Complete", "Matched: 1/1 (100.0%)", "Added: 1", "✓ OutKast - Hey Ya! -> Outkast - Hey Ya"} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q\n%s", want, output)
			}
		}

		stats, err := h.store.GetMatchStatistics()
		if err != nil {
			t.Fatalf("GetMatchStatistics failed: %v", err)
		}
		if stats.TotalMatches != 1 {
			t.Errorf("expected match to be cached, got %d", stats.TotalMatches)
		}

		saved, err := services.LoadCatalog(dest, matcher.NewNormalizer(matcher.DefaultConfig().Normalization), 0)
		if err != nil {
			t.Fatalf("failed to reload catalog: %v", err)
		}
		pl, err := saved.GetPlaylist(context.Background(), "dst")
		if err != nil {
			t.Fatalf("GetPlaylist failed: %v", err)
		}
		if len(pl.Tracks) != 1 || pl.Tracks[0].PlatformID != "yt-heyya" {
			t.Errorf("expected saved playlist to contain hey ya, got %v", pl.Tracks)
		}
	})

	t.Run("run json", func(t *testing.T) {
		h := newHarness(t)
		source, dest := setupCatalogs(t, []models.Track{ytHeyYa})

		err := h.run("match", "run",
			"--source", source, "--dest", dest,
			"--source-playlist", "src", "--dest-playlist", "dst",
			"--json",
		)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var out runOutput
		if err := json.Unmarshal(h.output.Bytes(), &out); err != nil {
			t.Fatalf("failed to decode output: %v\n%s", err, h.output.String())
		}
		if out.Matched != 1 || out.Added != 0 || len(out.Tracks) != 1 {
			t.Errorf("unexpected run output: %+v", out)
		}
		if out.Tracks[0].TargetID != "yt-heyya" || !out.Tracks[0].Accepted {
			t.Errorf("unexpected track outcome: %+v", out.Tracks[0])
		}
	})

	t.Run("run unknown playlist", func(t *testing.T) {
		h := newHarness(t)
		source, dest := setupCatalogs(t, nil)

		err := h.run("match", "run",
			"--source", source, "--dest", dest,
			"--source-playlist", "missing", "--dest-playlist", "dst",
		)
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("run missing catalog", func(t *testing.T) {
		h := newHarness(t)
		_, dest := setupCatalogs(t, nil)

		err := h.run("match", "run",
			"--source", filepath.Join(t.TempDir(), "none.json"), "--dest", dest,
			"--source-playlist", "src", "--dest-playlist", "dst",
		)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("sync prunes and copies details", func(t *testing.T) {
		h := newHarness(t)
		dir := t.TempDir()
		source := writeCatalog(t, dir, "spotify.json", services.CatalogFile{
			Platform:  "spotify",
			Playlists: []models.Playlist{{ID: "src", Title: "Road Trip", Description: "Songs for the drive", Tracks: []models.Track{heyYa}}},
		})
		dest := writeCatalog(t, dir, "youtube.json", services.CatalogFile{
			Platform:  "youtube",
			Playlists: []models.Playlist{{ID: "dst", Title: "Old Mix", Tracks: []models.Track{ytJude}}},
			Library:   []models.Track{ytHeyYa},
		})

		err := h.run("match", "sync",
			"--source", source, "--dest", dest,
			"--source-playlist", "src", "--dest-playlist", "dst",
			"--prune", "--save",
		)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		output := h.output.String()
		for _, want := range []string{"Sync Complete", "Added: 1", "Details updated: yes", "Removed: 1", "- The Beatles - Hey Jude"} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q\n%s", want, output)
			}
		}

		saved, err := services.LoadCatalog(dest, matcher.NewNormalizer(matcher.DefaultConfig().Normalization), 0)
		if err != nil {
			t.Fatalf("failed to reload catalog: %v", err)
		}
		pl, err := saved.GetPlaylist(context.Background(), "dst")
		if err != nil {
			t.Fatalf("GetPlaylist failed: %v", err)
		}
		if len(pl.Tracks) != 1 || pl.Tracks[0].PlatformID != "yt-heyya" {
			t.Errorf("expected saved playlist to contain only hey ya, got %v", pl.Tracks)
		}
		if pl.Title != "Road Trip" || pl.Description != "Songs for the drive" {
			t.Errorf("expected source details, got %q / %q", pl.Title, pl.Description)
		}
	})

	t.Run("sync json without prune", func(t *testing.T) {
		h := newHarness(t)
		source, dest := setupCatalogs(t, []models.Track{ytJude})

		err := h.run("match", "sync",
			"--source", source, "--dest", dest,
			"--source-playlist", "src", "--dest-playlist", "dst",
			"--json",
		)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var out syncOutput
		if err := json.Unmarshal(h.output.Bytes(), &out); err != nil {
			t.Fatalf("failed to decode output: %v\n%s", err, h.output.String())
		}
		if out.Run.Matched != 1 || out.Run.Added != 1 {
			t.Errorf("unexpected run output: %+v", out.Run)
		}
		if out.DetailsUpdated || len(out.Removed) != 0 {
			t.Errorf("expected no details update and no removals, got %+v", out)
		}
	})

	t.Run("diff", func(t *testing.T) {
		h := newHarness(t)
		source, dest := setupCatalogs(t, []models.Track{ytJude, ytHeyYa})

		err := h.run("match", "diff",
			"--source", source, "--dest", dest,
			"--source-playlist", "src", "--dest-playlist", "dst",
		)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		output := h.output.String()
		for _, want := range []string{"Matched: 1", "Missing in destination: 0", "Extra in destination: 1", "+ The Beatles - Hey Jude"} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q\n%s", want, output)
			}
		}

		stats, _ := h.store.GetMatchStatistics()
		if stats.TotalMatches != 0 || stats.FailedMatches != 0 {
			t.Error("diff should not write to the store")
		}
	})
}

func TestStoreCommands(t *testing.T) {
	t.Run("stats json", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t)

		if err := h.run("stats", "--json", "--pretty=false"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		expected := `{"total_matches":1,"verified_matches":0,"failed_matches":1}` + "\n"
		if h.output.String() != expected {
			t.Errorf("expected %q, got %q", expected, h.output.String())
		}
	})

	t.Run("matches list", func(t *testing.T) {
		h := newHarness(t)
		record := h.seed(t)

		if err := h.run("matches", "list", "--unverified"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		output := h.output.String()
		if !strings.Contains(output, record.ID) || !strings.Contains(output, "0.85 medium") {
			t.Errorf("unexpected list output: %s", output)
		}
		if !strings.Contains(output, "1 matches") {
			t.Errorf("expected count line, got: %s", output)
		}
	})

	t.Run("matches list filters", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t)

		if err := h.run("matches", "list", "--below", "0.8"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "No matches found") {
			t.Errorf("expected no matches below 0.8, got: %s", h.output.String())
		}

		if err := h.run("matches", "list", "--verified", "--unverified"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
		if err := h.run("matches", "list", "--below", "2"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("matches verify", func(t *testing.T) {
		h := newHarness(t)
		record := h.seed(t)

		if err := h.run("matches", "verify", record.ID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		stored, err := h.store.GetMatchByID(record.ID)
		if err != nil {
			t.Fatalf("GetMatchByID failed: %v", err)
		}
		if !stored.ManuallyVerified {
			t.Error("expected match to be verified")
		}

		if err := h.run("matches", "verify", "--unset", record.ID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		stored, _ = h.store.GetMatchByID(record.ID)
		if stored.ManuallyVerified {
			t.Error("expected verification to be cleared")
		}
		if !strings.Contains(h.output.String(), "unverified") {
			t.Errorf("expected unverified message, got %s", h.output.String())
		}
	})

	t.Run("matches verify errors", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("matches", "verify", "nope"); !errors.Is(err, shared.ErrMatchNotFound) {
			t.Errorf("expected ErrMatchNotFound, got %v", err)
		}
		if err := h.run("matches", "verify"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("matches history", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t)

		err := h.run("matches", "history", "--platform", "spotify", "--id", "sp-heyya", "--target-platform", "youtube")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		output := h.output.String()
		if !strings.Contains(output, "spotify:sp-heyya->youtube") || !strings.Contains(output, "youtube:yt-heyya Outkast - Hey Ya (0.85)") {
			t.Errorf("unexpected history output: %s", output)
		}
	})

	t.Run("failures list", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t)

		if err := h.run("failures", "list", "--target-platform", "youtube"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "✗ spotify:sp-none Nothing → youtube: No candidates available") {
			t.Errorf("unexpected failures output: %s", h.output.String())
		}
	})

	t.Run("report", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t)
		dir := filepath.Join(t.TempDir(), "out")

		if err := h.run("report", "--dir", dir, "--title", "Weekly"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "matches.csv"))
		tu.AssertFileExists(t, filepath.Join(dir, "failures.csv"))
		readme := tu.MustReadFile(t, filepath.Join(dir, "README.md"))
		if !strings.Contains(readme, "# Weekly") || !strings.Contains(readme, "**Matches**: 1") {
			t.Errorf("unexpected README: %s", readme)
		}
	})

	t.Run("store errors", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Store.Engine = "redis"
		runner := NewRunner(RunnerOpts{Config: config, Logger: log.New(&bytes.Buffer{}), Output: &bytes.Buffer{}})

		if err := newApp(runner).Run(context.Background(), []string{"tunematch", "stats"}); !errors.Is(err, shared.ErrUnknownStore) {
			t.Errorf("expected ErrUnknownStore, got %v", err)
		}
	})
}
