package matcher

import (
	"strings"

	"github.com/desertthunder/tunematch/internal/models"
)

// neutralAlbumScore is returned when either album is unknown.
const neutralAlbumScore = 0.5

// CompareTitles rates two titles in [0, 1].
//
// Empty titles score 0. Titles that normalize identically score 1, blank ones included. Otherwise version qualifiers
// are removed from both before comparing, so "Song" and "Song (Radio Edit)" score high.
func (n *Normalizer) CompareTitles(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}

	na, nb := n.Normalize(a), n.Normalize(b)
	if na == nb {
		return 1.0
	}

	return SequenceRatio(n.stripped(a, na), n.stripped(b, nb))
}

// stripped returns the normalized title without version qualifiers, falling back to the plain
// normalized form when nothing else is left.
func (n *Normalizer) stripped(raw, normalized string) string {
	if s := n.Normalize(n.StripQualifiers(strings.ToLower(raw))); s != "" {
		return s
	}
	return normalized
}

// CompareArtists rates two artist lists in [0, 1].
//
// Names are normalized and deduplicated. Each distinct name in a is paired with its most similar
// name in b, and the result is the mean of those best scores. The comparison is driven by a, so
// CompareArtists(a, b) and CompareArtists(b, a) may differ.
func (n *Normalizer) CompareArtists(a, b []models.Artist) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	setA, setB := n.artistSet(a), n.artistSet(b)

	var sum float64
	for _, name := range setA {
		best := 0.0
		for _, other := range setB {
			if r := SequenceRatio(name, other); r > best {
				best = r
			}
		}
		sum += best
	}
	return sum / float64(len(setA))
}

// CompareArtistsSymmetric averages both directions of [Normalizer.CompareArtists].
func (n *Normalizer) CompareArtistsSymmetric(a, b []models.Artist) float64 {
	return (n.CompareArtists(a, b) + n.CompareArtists(b, a)) / 2
}

func (n *Normalizer) artistSet(artists []models.Artist) []string {
	seen := make(map[string]struct{}, len(artists))
	set := make([]string, 0, len(artists))
	for _, a := range artists {
		name := n.Normalize(a.Name)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		set = append(set, name)
	}
	return set
}

// CompareAlbums rates two album names in [0, 1]. A missing album on either side scores a
// neutral 0.5.
func (n *Normalizer) CompareAlbums(a, b string) float64 {
	if a == "" || b == "" {
		return neutralAlbumScore
	}
	return SequenceRatio(n.Normalize(a), n.Normalize(b))
}
