package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/tunematch/internal/formatter"
	"github.com/desertthunder/tunematch/internal/models"
	"github.com/desertthunder/tunematch/internal/shared"
	"github.com/urfave/cli/v3"
)

func verifiedMark(v bool) string {
	if v {
		return "✓"
	}
	return " "
}

// MatchesList lists stored matches filtered by platform, verification and confidence.
func (r *Runner) MatchesList(ctx context.Context, cmd *cli.Command) error {
	criteria := models.MatchCriteria{
		SourcePlatform: cmd.String("source-platform"),
		TargetPlatform: cmd.String("target-platform"),
		MaxConfidence:  cmd.Float("below"),
		Limit:          cmd.Int("limit"),
	}

	verified, unverified := cmd.Bool("verified"), cmd.Bool("unverified")
	if verified && unverified {
		return fmt.Errorf("%w: --verified and --unverified are mutually exclusive", shared.ErrInvalidFlag)
	}
	if verified || unverified {
		criteria.Verified = &verified
	}
	if criteria.MaxConfidence < 0 || criteria.MaxConfidence > 1 {
		return fmt.Errorf("%w: --below must be within [0, 1]", shared.ErrInvalidFlag)
	}

	store, err := r.matchStore()
	if err != nil {
		return err
	}

	records, err := store.ListMatches(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, cmd.Bool("pretty"))
	}

	if len(records) == 0 {
		return r.writePlain("No matches found\n")
	}

	cfg := r.newMatcher(nil).Config()
	for _, rec := range records {
		r.writePlain("%s %s  %.2f %-6s  %s → %s\n",
			verifiedMark(rec.ManuallyVerified),
			rec.ID,
			rec.Confidence,
			cfg.Classify(rec.Confidence),
			rec.SourceTrack().String(),
			rec.TargetTrack().String(),
		)
	}
	return r.writePlainln("%d matches", len(records))
}

// MatchesVerify sets or clears the manual verification flag of a stored match.
func (r *Runner) MatchesVerify(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if err := requireArg(id, "match id"); err != nil {
		return err
	}
	verified := !cmd.Bool("unset")

	store, err := r.matchStore()
	if err != nil {
		return err
	}

	record, err := store.UpdateMatchVerification(id, verified)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: %s", shared.ErrMatchNotFound, id)
	}

	r.logger.Info("match verification updated", "id", id, "verified", verified)

	action := "verified"
	if !verified {
		action = "unverified"
	}
	return r.writePlain("✓ Match %s %s: %s → %s\n", id, action, record.SourceTrack().String(), record.TargetTrack().String())
}

// MatchesHistory lists every saved version of the match for one source track.
func (r *Runner) MatchesHistory(ctx context.Context, cmd *cli.Command) error {
	source := models.Track{Platform: cmd.String("platform"), PlatformID: cmd.String("id")}
	targetPlatform := cmd.String("target-platform")

	store, err := r.matchStore()
	if err != nil {
		return err
	}

	entries, err := store.ListMatchHistory(source, targetPlatform)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}

	if len(entries) == 0 {
		return r.writePlain("No history for %s\n", models.MatchKey(source.Platform, source.PlatformID, targetPlatform))
	}

	r.writePlainHeader(models.MatchKey(source.Platform, source.PlatformID, targetPlatform))
	for i, e := range entries {
		target := models.Track{Title: e.TargetTitle, Artists: models.ArtistsFromNames(e.TargetArtists)}
		r.writePlain("%d. %s  %s %s:%s %s (%.2f)\n",
			i+1,
			e.RecordedAt.Local().Format(time.DateTime),
			verifiedMark(e.ManuallyVerified),
			e.TargetPlatform,
			e.TargetPlatformID,
			target.String(),
			e.Confidence,
		)
	}
	return nil
}

// FailuresList lists failed match attempts, oldest first.
func (r *Runner) FailuresList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.matchStore()
	if err != nil {
		return err
	}

	failures, err := store.ListFailedMatches(models.FailureCriteria{
		SourcePlatform: cmd.String("source-platform"),
		TargetPlatform: cmd.String("target-platform"),
		Limit:          cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(failures, cmd.Bool("pretty"))
	}

	if len(failures) == 0 {
		return r.writePlain("No failed matches\n")
	}

	for _, f := range failures {
		source := models.Track{Title: f.SourceTitle, Artists: models.ArtistsFromNames(f.SourceArtists)}
		r.writePlain("✗ %s:%s %s → %s: %s\n", f.SourcePlatform, f.SourcePlatformID, source.String(), f.TargetPlatform, f.ErrorReason)
	}
	return r.writePlainln("%d failures", len(failures))
}

// Stats prints match store counts.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	store, err := r.matchStore()
	if err != nil {
		return err
	}

	stats, err := store.GetMatchStatistics()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Match Store")
	r.writePlain("Matches:  %d\n", stats.TotalMatches)
	r.writePlain("Verified: %d\n", stats.VerifiedMatches)
	r.writePlain("Failed:   %d\n", stats.FailedMatches)
	return nil
}

// Report writes matches, failures and a Markdown summary into a directory.
func (r *Runner) Report(ctx context.Context, cmd *cli.Command) error {
	store, err := r.matchStore()
	if err != nil {
		return err
	}

	stats, err := store.GetMatchStatistics()
	if err != nil {
		return err
	}
	matches, err := store.ListMatches(models.MatchCriteria{
		SourcePlatform: cmd.String("source-platform"),
		TargetPlatform: cmd.String("target-platform"),
	})
	if err != nil {
		return err
	}
	failures, err := store.ListFailedMatches(models.FailureCriteria{
		SourcePlatform: cmd.String("source-platform"),
		TargetPlatform: cmd.String("target-platform"),
	})
	if err != nil {
		return err
	}

	result, err := formatter.WriteReport(cmd.String("dir"), &formatter.Report{
		Title:       cmd.String("title"),
		GeneratedAt: time.Now(),
		Statistics:  stats,
		Matches:     matches,
		Failures:    failures,
	})
	if err != nil {
		return err
	}

	r.logger.Info("report written", "dir", result.Directory, "matches", len(matches), "failures", len(failures))
	r.writePlain("✓ Report written to %s\n", result.Directory)
	r.writePlain("  %s\n  %s\n  %s\n", result.MatchesFile, result.FailuresFile, result.ReadmeFile)
	return nil
}
