package matcher

import (
	"time"

	"github.com/desertthunder/tunematch/internal/shared"
)

// Band is a coarse interpretation of a confidence score.
type Band int

const (
	BandReject Band = iota
	BandLow
	BandMedium
	BandHigh
)

func (b Band) String() string {
	switch b {
	case BandHigh:
		return "high"
	case BandMedium:
		return "medium"
	case BandLow:
		return "low"
	default:
		return "reject"
	}
}

// Thresholds split scores into bands.
//
// Medium is the promote threshold: a best score at or above it is cached as a confirmed match.
// Low is the demote threshold: a best score below it is recorded as a failure.
type Thresholds struct {
	High   float64
	Medium float64
	Low    float64
}

// CachePolicy constrains which stored matches [TrackMatcher.FindBestMatch] trusts.
type CachePolicy struct {
	MinConfidence float64
	MaxAge        time.Duration
}

// Normalization is the text normalization table used by [Normalizer].
type Normalization struct {
	FillerWords       []string
	VersionQualifiers []string
	Substitutions     map[string]string
	FoldAccents       bool
}

// Config is the immutable matcher configuration.
type Config struct {
	TitleWeight      float64
	ArtistWeight     float64
	AlbumWeight      float64
	SymmetricArtists bool
	Thresholds       Thresholds
	Cache            CachePolicy
	Normalization    Normalization
}

// DefaultConfig returns the configuration built from the embedded defaults.
func DefaultConfig() Config {
	return ConfigFrom(shared.DefaultConfig())
}

// ConfigFrom converts the loaded application config into a matcher [Config].
//
// Slices and maps are copied so later changes to c do not leak into the matcher.
func ConfigFrom(c *shared.Config) Config {
	m := c.Matcher
	n := c.Normalization

	subs := make(map[string]string, len(n.Substitutions))
	for k, v := range n.Substitutions {
		subs[k] = v
	}

	return Config{
		TitleWeight:      m.TitleWeight,
		ArtistWeight:     m.ArtistWeight,
		AlbumWeight:      m.AlbumWeight,
		SymmetricArtists: m.SymmetricArtists,
		Thresholds: Thresholds{
			High:   m.Thresholds.High,
			Medium: m.Thresholds.Medium,
			Low:    m.Thresholds.Low,
		},
		Cache: CachePolicy{
			MinConfidence: m.Cache.MinConfidence,
			MaxAge:        time.Duration(m.Cache.MaxAgeDays) * 24 * time.Hour,
		},
		Normalization: Normalization{
			FillerWords:       append([]string(nil), n.FillerWords...),
			VersionQualifiers: append([]string(nil), n.VersionQualifiers...),
			Substitutions:     subs,
			FoldAccents:       m.FoldAccents,
		},
	}
}

// Classify maps a score to its [Band].
func (c Config) Classify(score float64) Band {
	switch {
	case score >= c.Thresholds.High:
		return BandHigh
	case score >= c.Thresholds.Medium:
		return BandMedium
	case score >= c.Thresholds.Low:
		return BandLow
	default:
		return BandReject
	}
}
