// Package matcher decides which candidate track from one catalog is the same song as a source
// track from another, and with what confidence.
//
// Scoring works in three layers:
//
//  1. [Normalizer] turns titles, artist names and album names into a canonical comparable form
//  2. Comparators ([Normalizer.CompareTitles], [Normalizer.CompareArtists], [Normalizer.CompareAlbums])
//     rate one field pair in [0, 1] using [SequenceRatio]
//  3. [TrackMatcher] combines the field scores with configured weights and consults a
//     [models.MatchStore] to reuse and record decisions
//
// All configuration is carried by an immutable [Config] value passed to [New].
package matcher
