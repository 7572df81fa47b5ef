package tasks

import (
	"fmt"

	"github.com/desertthunder/tunematch/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSource Phase = iota
	FetchDest
	SearchTracks
	MatchTracks
	AddTracks
	Compare
	UpdateDetails
	PruneTracks
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case FetchDest:
		return "fetch_dest"
	case SearchTracks:
		return "search_tracks"
	case MatchTracks:
		return "match_tracks"
	case AddTracks:
		return "add_tracks"
	case Compare:
		return "compare"
	case UpdateDetails:
		return "update_details"
	case PruneTracks:
		return "prune_tracks"
	default:
		return ""
	}
}

func fetchSourceUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching source playlist (%s)...", name),
	}
}

func fetchDestUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDest,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching destination playlist (%s)...", name),
	}
}

func foundPlaylistUpdate(step, total int, pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", pl.Title, len(pl.Tracks)),
		Data:    pl,
	}
}

func searchTracksUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Searching for %d tracks...", total),
	}
}

func matchedTrackUpdate(step, total int, res TrackMatchResult) ProgressUpdate {
	mark := "✗"
	if res.Accepted {
		mark = "✓"
	}
	return ProgressUpdate{
		Phase:   MatchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s (%.2f %s)", step, total, mark, res.Original.String(), res.Confidence, res.Band),
		Data:    res,
	}
}

func addTracksUpdate(step, total, count int, pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Adding %d tracks to %s...", count, pl.Title),
		Data:    pl,
	}
}

func compareUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compare,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Comparing tracks...", step, total),
	}
}

func updateDetailsUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UpdateDetails,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Updating details of %s...", pl.Title),
		Data:    pl,
	}
}

func pruneTracksUpdate(count int, pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PruneTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Removing %d tracks from %s...", count, pl.Title),
		Data:    pl,
	}
}
