package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tunematch/internal/formatter"
	"github.com/desertthunder/tunematch/internal/models"
	"github.com/desertthunder/tunematch/internal/shared"
	"github.com/desertthunder/tunematch/internal/tasks"
	"github.com/urfave/cli/v3"
)

type scoreOutput struct {
	Score  float64 `json:"score"`
	Band   string  `json:"band"`
	Title  float64 `json:"title"`
	Artist float64 `json:"artist"`
	Album  float64 `json:"album"`
}

type trackOutcome struct {
	Source     string  `json:"source"`
	Target     string  `json:"target,omitempty"`
	TargetID   string  `json:"target_id,omitempty"`
	Confidence float64 `json:"confidence"`
	Band       string  `json:"band"`
	Accepted   bool    `json:"accepted"`
	Error      string  `json:"error,omitempty"`
}

type runOutput struct {
	Source          string         `json:"source"`
	Destination     string         `json:"destination"`
	TotalTracks     int            `json:"total_tracks"`
	Matched         int            `json:"matched"`
	Failed          int            `json:"failed"`
	Added           int            `json:"added"`
	MatchPercentage float64        `json:"match_percentage"`
	Tracks          []trackOutcome `json:"tracks"`
}

type syncOutput struct {
	Run            runOutput `json:"run"`
	DetailsUpdated bool      `json:"details_updated"`
	Removed        []string  `json:"removed"`
}

// MatchScore scores two tracks described on the command line without touching the match store.
func (r *Runner) MatchScore(ctx context.Context, cmd *cli.Command) error {
	source := models.Track{
		Title:     cmd.String("source-title"),
		Artists:   models.ArtistsFromNames(cmd.StringSlice("source-artist")),
		AlbumName: cmd.String("source-album"),
	}
	target := models.Track{
		Title:     cmd.String("target-title"),
		Artists:   models.ArtistsFromNames(cmd.StringSlice("target-artist")),
		AlbumName: cmd.String("target-album"),
	}

	m := r.newMatcher(nil)
	cfg := m.Config()
	norm := m.Normalizer()

	artist := norm.CompareArtists(source.Artists, target.Artists)
	if cfg.SymmetricArtists {
		artist = norm.CompareArtistsSymmetric(source.Artists, target.Artists)
	}

	score := m.Score(source, target)
	out := scoreOutput{
		Score:  score,
		Band:   cfg.Classify(score).String(),
		Title:  norm.CompareTitles(source.Title, target.Title),
		Artist: artist,
		Album:  norm.CompareAlbums(source.AlbumName, target.AlbumName),
	}

	if cmd.Bool("json") {
		return r.writeJSON(out, true)
	}

	r.writePlain("Score: %.4f (%s)\n", out.Score, out.Band)
	r.writePlain("  title:  %.4f × %.2f\n", out.Title, cfg.TitleWeight)
	r.writePlain("  artist: %.4f × %.2f\n", out.Artist, cfg.ArtistWeight)
	r.writePlain("  album:  %.4f × %.2f\n", out.Album, cfg.AlbumWeight)
	return nil
}

// MatchRun matches a playlist from one catalog file onto a playlist in another.
//
// Matches are cached in the configured store. With --save the destination catalog is written back with the added tracks.
func (r *Runner) MatchRun(ctx context.Context, cmd *cli.Command) error {
	store, err := r.matchStore()
	if err != nil {
		return err
	}

	m := r.newMatcher(store)
	sourceSvc, err := r.loadCatalog(cmd.String("source"), m)
	if err != nil {
		return err
	}
	destPath := cmd.String("dest")
	destSvc, err := r.loadCatalog(destPath, m)
	if err != nil {
		return err
	}

	engine := tasks.NewPlaylistEngine(m, tasks.OptsFromConfig(r.config.Search), shared.WithLogger(r.logger, "component", "engine"))
	asJSON := cmd.Bool("json")

	progress, wait := r.printProgress(asJSON)
	result, err := engine.Run(ctx, progress, sourceSvc, destSvc, cmd.String("source-playlist"), cmd.String("dest-playlist"))
	wait()

	if err != nil {
		return err
	}

	if cmd.Bool("save") {
		if err := destSvc.Save(destPath); err != nil {
			return err
		}
		r.logger.Info("saved destination catalog", "path", destPath, "added", len(result.AddedTracks))
	}

	if asJSON {
		return r.writeJSON(summarizeRun(result), true)
	}

	text, err := formatter.RunToText(result)
	if err != nil {
		return err
	}
	r.writePlainln("")
	r.writePlainHeader("Match Complete")
	return r.writePlain("%s", text)
}

// MatchSync matches a playlist like [Runner.MatchRun], copies the source title and description to
// the destination and with --prune removes destination tracks the source does not have.
func (r *Runner) MatchSync(ctx context.Context, cmd *cli.Command) error {
	store, err := r.matchStore()
	if err != nil {
		return err
	}

	m := r.newMatcher(store)
	sourceSvc, err := r.loadCatalog(cmd.String("source"), m)
	if err != nil {
		return err
	}
	destPath := cmd.String("dest")
	destSvc, err := r.loadCatalog(destPath, m)
	if err != nil {
		return err
	}

	engine := tasks.NewPlaylistEngine(m, tasks.OptsFromConfig(r.config.Search), shared.WithLogger(r.logger, "component", "engine"))
	asJSON := cmd.Bool("json")
	opts := tasks.SyncOpts{Prune: cmd.Bool("prune")}

	progress, wait := r.printProgress(asJSON)
	result, err := engine.Sync(ctx, progress, sourceSvc, destSvc, cmd.String("source-playlist"), cmd.String("dest-playlist"), opts)
	wait()

	if err != nil {
		return err
	}

	if cmd.Bool("save") {
		if err := destSvc.Save(destPath); err != nil {
			return err
		}
		r.logger.Info("saved destination catalog", "path", destPath,
			"added", len(result.Run.AddedTracks), "removed", len(result.Removed))
	}

	if asJSON {
		return r.writeJSON(summarizeSync(result), true)
	}

	text, err := formatter.SyncToText(result)
	if err != nil {
		return err
	}
	r.writePlainln("")
	r.writePlainHeader("Sync Complete")
	return r.writePlain("%s", text)
}

// printProgress starts printing engine progress unless output is JSON. The returned func closes
// the channel and waits for the printer to drain it.
func (r *Runner) printProgress(asJSON bool) (chan tasks.ProgressUpdate, func()) {
	if asJSON {
		return nil, func() {}
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			switch update.Phase {
			case tasks.FetchSource, tasks.FetchDest:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.SearchTracks:
				r.writePlain("\n🔍 %s\n", update.Message)
			case tasks.MatchTracks:
				r.writePlain("   %s\n", update.Message)
			case tasks.AddTracks, tasks.UpdateDetails, tasks.PruneTracks:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	return progress, func() {
		close(progress)
		<-done
	}
}

// MatchDiff compares two playlists from catalog files by score.
func (r *Runner) MatchDiff(ctx context.Context, cmd *cli.Command) error {
	m := r.newMatcher(nil)
	sourceSvc, err := r.loadCatalog(cmd.String("source"), m)
	if err != nil {
		return err
	}
	destSvc, err := r.loadCatalog(cmd.String("dest"), m)
	if err != nil {
		return err
	}

	engine := tasks.NewPlaylistEngine(m, tasks.OptsFromConfig(r.config.Search), shared.WithLogger(r.logger, "component", "engine"))
	result, err := engine.Diff(ctx, nil, sourceSvc, destSvc, cmd.String("source-playlist"), cmd.String("dest-playlist"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result.Comparison, true)
	}

	text, err := formatter.DiffToText(result)
	if err != nil {
		return err
	}
	return r.writePlain("%s", text)
}

func summarizeRun(result *tasks.RunResult) runOutput {
	out := runOutput{
		TotalTracks:     result.TotalTracks,
		Matched:         result.SuccessCount,
		Failed:          result.FailedCount,
		Added:           len(result.AddedTracks),
		MatchPercentage: result.MatchPercentage,
		Tracks:          make([]trackOutcome, 0, len(result.TrackMatches)),
	}
	if result.SourcePlaylist != nil {
		out.Source = result.SourcePlaylist.Title
	}
	if result.DestPlaylist != nil {
		out.Destination = result.DestPlaylist.Title
	}

	for _, m := range result.TrackMatches {
		o := trackOutcome{
			Source:     m.Original.String(),
			Confidence: m.Confidence,
			Band:       m.Band.String(),
			Accepted:   m.Accepted,
		}
		if m.Matched != nil {
			o.Target = m.Matched.String()
			o.TargetID = m.Matched.PlatformID
		}
		if m.Error != nil {
			o.Error = m.Error.Error()
		}
		out.Tracks = append(out.Tracks, o)
	}
	return out
}

func summarizeSync(result *tasks.SyncResult) syncOutput {
	out := syncOutput{
		Run:            summarizeRun(result.Run),
		DetailsUpdated: result.DetailsUpdated,
		Removed:        make([]string, 0, len(result.Removed)),
	}
	for _, t := range result.Removed {
		out.Removed = append(out.Removed, t.String())
	}
	return out
}

func requireArg(value, name string) error {
	if value == "" {
		return fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return nil
}
