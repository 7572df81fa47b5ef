package matcher

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunematch/internal/models"
)

// UnknownPlatform is the target platform recorded when there were no candidates to infer it from.
const UnknownPlatform = "unknown"

// TrackMatcher scores candidate tracks and records its decisions in a [models.MatchStore].
type TrackMatcher struct {
	cfg    Config
	norm   *Normalizer
	store  models.MatchStore
	logger *log.Logger
}

// Option configures a [TrackMatcher].
type Option func(*TrackMatcher)

// WithLogger sets the logger used for match decisions, which are logged at debug level.
func WithLogger(l *log.Logger) Option {
	return func(m *TrackMatcher) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a TrackMatcher. A nil store disables both cache lookups and persistence.
func New(cfg Config, store models.MatchStore, opts ...Option) *TrackMatcher {
	m := &TrackMatcher{
		cfg:    cfg,
		norm:   NewNormalizer(cfg.Normalization),
		store:  store,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the matcher configuration.
func (m *TrackMatcher) Config() Config {
	return m.cfg
}

// Normalizer returns the normalizer built from the configuration.
func (m *TrackMatcher) Normalizer() *Normalizer {
	return m.norm
}

// Score returns the weighted similarity of a and b in [0, 1].
//
// Tracks with the same platform and platform id are identical and score 1. Missing artist data
// lowers the score by its whole weight, while a missing album only costs half of its weight.
func (m *TrackMatcher) Score(a, b models.Track) float64 {
	if a.SameAs(b) {
		return 1.0
	}

	title := m.norm.CompareTitles(a.Title, b.Title)

	var artist float64
	if m.cfg.SymmetricArtists {
		artist = m.norm.CompareArtistsSymmetric(a.Artists, b.Artists)
	} else {
		artist = m.norm.CompareArtists(a.Artists, b.Artists)
	}

	album := m.norm.CompareAlbums(a.AlbumName, b.AlbumName)

	return clamp(title*m.cfg.TitleWeight + artist*m.cfg.ArtistWeight + album*m.cfg.AlbumWeight)
}

// FindBestMatch selects the candidate most similar to track.
//
// A stored match for track whose target is among candidates is returned with confidence 1
// without scoring. Otherwise the highest scoring candidate wins, with ties going to the earliest
// candidate. Winners at or above the medium threshold are saved as matches and winners below the
// low threshold are saved as failures. The winner is returned whatever its score, so callers
// must apply their own acceptance policy.
//
// An empty candidate list is not an error: it yields (nil, 0) and a failure record.
// Store errors are wrapped and returned without retrying.
func (m *TrackMatcher) FindBestMatch(track models.Track, candidates []models.Track) (*models.Track, float64, error) {
	if len(candidates) == 0 {
		m.logger.Debug("no candidates", "track", track.String())
		if err := m.saveFailure(track, UnknownPlatform, "No candidates available"); err != nil {
			return nil, 0, err
		}
		return nil, 0, nil
	}

	targetPlatform := candidates[0].Platform

	cached, err := m.cached(track, targetPlatform)
	if err != nil {
		return nil, 0, err
	}
	if cached != nil {
		for i := range candidates {
			if candidates[i].SameAs(*cached) {
				m.logger.Debug("cache hit", "track", track.String(), "target", cached.PlatformID)
				match := candidates[i]
				return &match, 1.0, nil
			}
		}
		m.logger.Debug("cached match not among candidates", "track", track.String(), "target", cached.PlatformID)
	}

	best, bestScore := 0, -1.0
	for i, c := range candidates {
		if s := m.Score(track, c); s > bestScore {
			best, bestScore = i, s
		}
	}
	winner := candidates[best]

	m.logger.Debug("scored candidates",
		"track", track.String(), "candidates", len(candidates),
		"best", winner.String(), "score", bestScore, "band", m.cfg.Classify(bestScore))

	switch {
	case bestScore >= m.cfg.Thresholds.Medium:
		if err := m.saveMatch(track, winner, bestScore); err != nil {
			return nil, 0, err
		}
	case bestScore < m.cfg.Thresholds.Low:
		reason := "Low confidence match: " + strconv.FormatFloat(bestScore, 'f', -1, 64)
		if err := m.saveFailure(track, targetPlatform, reason); err != nil {
			return nil, 0, err
		}
	}

	return &winner, bestScore, nil
}

func (m *TrackMatcher) cached(track models.Track, targetPlatform string) (*models.Track, error) {
	if m.store == nil {
		return nil, nil
	}
	match, err := m.store.GetMatch(track, targetPlatform, m.cfg.Cache.MinConfidence, m.cfg.Cache.MaxAge)
	if err != nil {
		return nil, fmt.Errorf("failed to look up match: %w", err)
	}
	return match, nil
}

func (m *TrackMatcher) saveMatch(source, target models.Track, score float64) error {
	if m.store == nil {
		return nil
	}
	if _, err := m.store.SaveMatch(source, target, score, false); err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}
	m.logger.Debug("match cached", "track", source.String(), "target", target.PlatformID, "score", score)
	return nil
}

func (m *TrackMatcher) saveFailure(source models.Track, targetPlatform, reason string) error {
	if m.store == nil {
		return nil
	}
	if _, err := m.store.SaveFailedMatch(source, targetPlatform, reason); err != nil {
		return fmt.Errorf("failed to save failed match: %w", err)
	}
	m.logger.Debug("match rejected", "track", source.String(), "reason", reason)
	return nil
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
