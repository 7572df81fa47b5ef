package tasks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunematch/internal/matcher"
	"github.com/desertthunder/tunematch/internal/models"
	"github.com/desertthunder/tunematch/internal/services"
	"github.com/desertthunder/tunematch/internal/shared"
	"golang.org/x/time/rate"
)

// TrackMatchResult represents the result of attempting to match a single track.
type TrackMatchResult struct {
	Original   models.Track  // Original track from source
	Matched    *models.Track // Best candidate (nil if the search returned nothing)
	Confidence float64       // Score of the best candidate
	Band       matcher.Band  // Confidence band of the best candidate
	Accepted   bool          // Confidence met the acceptance threshold
	Error      error         // Error if the search failed
}

// RunResult contains all data from a full matching run.
type RunResult struct {
	SourcePlaylist  *models.Playlist   // Source playlist with tracks
	DestPlaylist    *models.Playlist   // Destination playlist after tracks were added
	TrackMatches    []TrackMatchResult // Individual track match results, in source order
	AddedTracks     []models.Track     // Tracks added to the destination playlist
	SuccessCount    int                // Number of accepted matches
	FailedCount     int                // Number of tracks without an accepted match
	TotalTracks     int                // Total tracks processed
	MatchPercentage float64            // Success rate as percentage
}

// TrackPair is a source track paired with the destination track it matched.
type TrackPair struct {
	Source     models.Track
	Dest       models.Track
	Confidence float64
}

// ComparisonResult contains track comparison details between two playlists.
type ComparisonResult struct {
	SourcePlaylist *models.Playlist // Source playlist
	DestPlaylist   *models.Playlist // Destination playlist
	Matched        []TrackPair      // Tracks found in both
	MissingInDest  []models.Track   // Tracks in source but not in dest
	ExtraInDest    []models.Track   // Tracks in dest but not in source
}

// MatchedCount returns the number of tracks found in both playlists.
func (c ComparisonResult) MatchedCount() int {
	return len(c.Matched)
}

// DiffResult contains the results of comparing two playlists.
type DiffResult struct {
	Comparison ComparisonResult
}

// SyncOpts controls what [PlaylistEngine.Sync] may change beyond adding tracks.
type SyncOpts struct {
	Prune bool // Remove destination tracks without a counterpart in the source
}

// SyncResult contains the results of bringing a destination playlist in line with its source.
type SyncResult struct {
	Run            *RunResult     // Matching pass that added accepted tracks
	Removed        []models.Track // Destination tracks removed by pruning
	DetailsUpdated bool           // Source title and description were copied to the destination
}

// SyncEngine defines operations for matching playlists between catalogs.
type SyncEngine interface {
	// Run matches every track of a source playlist against the destination catalog and adds accepted matches to the destination playlist.
	Run(ctx context.Context, progress chan<- ProgressUpdate, sourceSvc, destSvc services.Service, sourceID, destID string) (*RunResult, error)

	// Diff compares two playlists across catalogs by identifying matched tracks, missing tracks, and extra tracks.
	Diff(ctx context.Context, progress chan<- ProgressUpdate, sourceSvc, destSvc services.Service, sourceID, destID string) (*DiffResult, error)

	// Sync runs a match, copies playlist details to the destination and optionally prunes tracks the source does not have.
	Sync(ctx context.Context, progress chan<- ProgressUpdate, sourceSvc, destSvc services.Service, sourceID, destID string, opts SyncOpts) (*SyncResult, error)
}

// EngineOpts tunes the candidate search of a [PlaylistEngine].
type EngineOpts struct {
	Workers         int     // Concurrent searches (default: 4, max: 10)
	RateLimit       float64 // Searches per second (default: 5)
	Burst           int     // Limiter burst (default: 1)
	AcceptThreshold float64 // Minimum confidence for a match to be added to the destination
}

// OptsFromConfig builds [EngineOpts] from the search section of the application config.
func OptsFromConfig(cfg shared.SearchConfig) EngineOpts {
	return EngineOpts{
		Workers:         cfg.Workers,
		RateLimit:       cfg.Rate,
		Burst:           cfg.Burst,
		AcceptThreshold: cfg.AcceptThreshold,
	}
}

// PlaylistEngine implements SyncEngine using a [matcher.TrackMatcher].
type PlaylistEngine struct {
	matcher *matcher.TrackMatcher
	opts    EngineOpts
	logger  *log.Logger
}

// NewPlaylistEngine creates a new PlaylistEngine. A nil logger discards output.
func NewPlaylistEngine(m *matcher.TrackMatcher, opts EngineOpts, logger *log.Logger) *PlaylistEngine {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Workers > 10 {
		opts.Workers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &PlaylistEngine{matcher: m, opts: opts, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

type matchJob struct {
	index int
	track models.Track
}

type matchOutcome struct {
	index  int
	result TrackMatchResult
	err    error
}

// Run matches a source playlist against the destination catalog.
//
// Each distinct source track is searched once on the destination through a rate limited worker pool,
// then scored by the matcher. Accepted matches that are not yet in the destination playlist are added to it.
// Unavailable source tracks are not searched and are reported with [shared.ErrTrackUnavailable].
// Search failures are recorded per track. Match store failures abort the run.
func (e *PlaylistEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, sourceSvc, destSvc services.Service, sourceID, destID string) (*RunResult, error) {
	if sourceSvc == nil || destSvc == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchSourceUpdate(1, 2, sourceSvc.Name()))
	source, err := sourceSvc.GetPlaylist(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get source playlist: %w", shared.ErrPlaylistNotFound, err)
	}

	e.sendProgress(progress, fetchDestUpdate(2, 2, destSvc.Name()))
	dest, err := destSvc.GetPlaylist(ctx, destID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get destination playlist: %w", shared.ErrPlaylistNotFound, err)
	}

	total := len(source.Tracks)
	result := &RunResult{
		SourcePlaylist: source,
		TrackMatches:   make([]TrackMatchResult, total),
		TotalTracks:    total,
	}
	e.sendProgress(progress, foundPlaylistUpdate(1, 1, source))
	e.logger.Info("matching playlist", "source", source.Title, "tracks", total, "destination", destSvc.Name())

	// Tracks repeated in the source playlist are matched once and share the result.
	firstByKey := make(map[string]int)
	duplicateOf := make(map[int]int)
	var jobs []matchJob
	for i, track := range source.Tracks {
		if !track.IsAvailable {
			result.TrackMatches[i] = TrackMatchResult{
				Original: track,
				Band:     matcher.BandReject,
				Error:    fmt.Errorf("%w: %s", shared.ErrTrackUnavailable, track.String()),
			}
			continue
		}
		if track.PlatformID != "" {
			key := models.MatchKey(track.Platform, track.PlatformID, destSvc.Name())
			if first, ok := firstByKey[key]; ok {
				duplicateOf[i] = first
				continue
			}
			firstByKey[key] = i
		}
		jobs = append(jobs, matchJob{index: i, track: track})
	}

	if err := e.matchAll(ctx, progress, destSvc, jobs, result.TrackMatches); err != nil {
		return result, err
	}

	for i, first := range duplicateOf {
		result.TrackMatches[i] = result.TrackMatches[first]
		result.TrackMatches[i].Original = source.Tracks[i]
	}

	var toAdd []models.Track
	for _, m := range result.TrackMatches {
		if !m.Accepted {
			continue
		}
		result.SuccessCount++
		if !containsTrack(dest.Tracks, *m.Matched) && !containsTrack(toAdd, *m.Matched) {
			toAdd = append(toAdd, *m.Matched)
		}
	}
	result.FailedCount = total - result.SuccessCount
	if total > 0 {
		result.MatchPercentage = float64(result.SuccessCount) / float64(total) * 100
	}

	if len(toAdd) > 0 {
		e.sendProgress(progress, addTracksUpdate(1, 1, len(toAdd), dest))
		if err := destSvc.AddTracks(ctx, destID, toAdd); err != nil {
			return result, fmt.Errorf("%w: failed to add tracks: %w", shared.ErrServiceUnavailable, err)
		}
		result.AddedTracks = toAdd
	}

	updated, err := destSvc.GetPlaylist(ctx, destID)
	if err != nil {
		return result, fmt.Errorf("%w: failed to refresh destination playlist: %w", shared.ErrPlaylistNotFound, err)
	}
	result.DestPlaylist = updated

	e.logger.Info("matching complete",
		"matched", result.SuccessCount, "failed", result.FailedCount, "added", len(result.AddedTracks))
	return result, nil
}

// matchAll runs jobs through the worker pool and writes results into out by index.
func (e *PlaylistEngine) matchAll(ctx context.Context, progress chan<- ProgressUpdate, destSvc services.Service, jobs []matchJob, out []TrackMatchResult) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(e.opts.RateLimit), e.opts.Burst)

	queue := make(chan matchJob, len(jobs))
	outcomes := make(chan matchOutcome, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < e.opts.Workers; i++ {
		wg.Add(1)
		go e.matchWorker(ctx, &wg, limiter, destSvc, queue, outcomes)
	}

	e.sendProgress(progress, searchTracksUpdate(len(jobs)))
	for _, job := range jobs {
		queue <- job
	}
	close(queue)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var firstErr error
	completed := 0
	for o := range outcomes {
		if o.err != nil {
			if firstErr == nil {
				firstErr = o.err
				cancel()
			}
			continue
		}
		completed++
		out[o.index] = o.result
		e.sendProgress(progress, matchedTrackUpdate(completed, len(jobs), o.result))
	}

	if firstErr != nil {
		return firstErr
	}
	if completed < len(jobs) {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("matching stopped after %d of %d tracks", completed, len(jobs))
	}
	return nil
}

// matchWorker is a worker goroutine that searches and scores tracks from the jobs channel.
func (e *PlaylistEngine) matchWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	destSvc services.Service,
	jobs <-chan matchJob,
	outcomes chan<- matchOutcome,
) {
	defer wg.Done()

	for job := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		outcomes <- e.matchTrack(ctx, destSvc, job)
	}
}

// matchTrack searches the destination for one source track and picks the best candidate.
func (e *PlaylistEngine) matchTrack(ctx context.Context, destSvc services.Service, job matchJob) matchOutcome {
	res := TrackMatchResult{Original: job.track, Band: matcher.BandReject}

	query := services.BuildSearchQuery(job.track)
	candidates, err := destSvc.SearchTracks(ctx, query)
	if err != nil {
		e.logger.Warn("search failed", "query", query, "error", err)
		res.Error = fmt.Errorf("%w: search %q: %w", shared.ErrServiceUnavailable, query, err)
		return matchOutcome{index: job.index, result: res}
	}

	match, score, err := e.matcher.FindBestMatch(job.track, candidates)
	if err != nil {
		return matchOutcome{index: job.index, err: err}
	}

	res.Matched = match
	res.Confidence = score
	res.Band = e.matcher.Config().Classify(score)
	res.Accepted = match != nil && score >= e.opts.AcceptThreshold
	if match == nil {
		res.Error = fmt.Errorf("%w: no candidates for %q", shared.ErrTrackNotFound, query)
	}

	return matchOutcome{index: job.index, result: res}
}

// Diff compares two playlists by score without touching the match store.
//
// Each source track is paired with the highest scoring unpaired destination track whose score meets
// the acceptance threshold.
func (e *PlaylistEngine) Diff(ctx context.Context, progress chan<- ProgressUpdate, sourceSvc, destSvc services.Service, sourceID, destID string) (*DiffResult, error) {
	if sourceSvc == nil || destSvc == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchSourceUpdate(1, 2, sourceSvc.Name()))
	source, err := sourceSvc.GetPlaylist(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get source playlist: %w", shared.ErrPlaylistNotFound, err)
	}

	e.sendProgress(progress, fetchDestUpdate(2, 2, destSvc.Name()))
	dest, err := destSvc.GetPlaylist(ctx, destID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get destination playlist: %w", shared.ErrPlaylistNotFound, err)
	}

	result := &DiffResult{}
	result.Comparison.SourcePlaylist = source
	result.Comparison.DestPlaylist = dest

	used := make([]bool, len(dest.Tracks))
	for i, src := range source.Tracks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.sendProgress(progress, compareUpdate(i+1, len(source.Tracks)))

		best, bestScore := -1, -1.0
		for j, d := range dest.Tracks {
			if used[j] {
				continue
			}
			if s := e.matcher.Score(src, d); s > bestScore {
				best, bestScore = j, s
			}
		}

		if best >= 0 && bestScore >= e.opts.AcceptThreshold {
			used[best] = true
			result.Comparison.Matched = append(result.Comparison.Matched, TrackPair{
				Source:     src,
				Dest:       dest.Tracks[best],
				Confidence: bestScore,
			})
			continue
		}
		result.Comparison.MissingInDest = append(result.Comparison.MissingInDest, src)
	}

	for j, d := range dest.Tracks {
		if !used[j] {
			result.Comparison.ExtraInDest = append(result.Comparison.ExtraInDest, d)
		}
	}

	return result, nil
}

// Sync brings a destination playlist in line with its source.
//
// Accepted matches are added through [PlaylistEngine.Run]. The source title and description are
// copied to the destination when they differ. With opts.Prune, the tracks [PlaylistEngine.Diff]
// reports as extra are removed from the destination afterwards.
func (e *PlaylistEngine) Sync(ctx context.Context, progress chan<- ProgressUpdate, sourceSvc, destSvc services.Service, sourceID, destID string, opts SyncOpts) (*SyncResult, error) {
	run, err := e.Run(ctx, progress, sourceSvc, destSvc, sourceID, destID)
	result := &SyncResult{Run: run}
	if err != nil {
		return result, err
	}

	source, dest := run.SourcePlaylist, run.DestPlaylist
	if source.Title != dest.Title || source.Description != dest.Description {
		details := *dest
		details.Title = source.Title
		details.Description = source.Description
		details.Tracks = nil

		e.sendProgress(progress, updateDetailsUpdate(dest))
		if err := destSvc.UpdatePlaylist(ctx, &details); err != nil {
			return result, fmt.Errorf("%w: failed to update playlist: %w", shared.ErrServiceUnavailable, err)
		}
		result.DetailsUpdated = true
	}

	if opts.Prune {
		diff, err := e.Diff(ctx, progress, sourceSvc, destSvc, sourceID, destID)
		if err != nil {
			return result, err
		}

		if extra := diff.Comparison.ExtraInDest; len(extra) > 0 {
			e.sendProgress(progress, pruneTracksUpdate(len(extra), dest))
			if err := destSvc.RemoveTracks(ctx, destID, extra); err != nil {
				return result, fmt.Errorf("%w: failed to remove tracks: %w", shared.ErrServiceUnavailable, err)
			}
			result.Removed = extra
		}
	}

	e.logger.Info("sync complete",
		"added", len(run.AddedTracks), "removed", len(result.Removed), "details", result.DetailsUpdated)
	return result, nil
}

func containsTrack(tracks []models.Track, t models.Track) bool {
	for _, existing := range tracks {
		if existing.SameAs(t) {
			return true
		}
	}
	return false
}
