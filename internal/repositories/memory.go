package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/tunematch/internal/models"
	"github.com/desertthunder/tunematch/internal/shared"
)

// MemoryStore implements [models.MatchStore] in process memory with the same upsert and history
// behavior as [MatchRepository]. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	matches  map[string]*models.MatchRecord
	failures []*models.FailedMatchRecord
	history  []*models.MatchHistoryEntry
	sequence int
	record   bool
	now      func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(history bool) *MemoryStore {
	return &MemoryStore{
		matches: make(map[string]*models.MatchRecord),
		record:  history,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) GetMatch(source models.Track, targetPlatform string, minConfidence float64, maxAge time.Duration) (*models.Track, error) {
	if source.PlatformID == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[models.MatchKey(source.Platform, source.PlatformID, targetPlatform)]
	if !ok || m.Confidence < minConfidence {
		return nil, nil
	}
	if maxAge > 0 && s.now().Sub(m.LastVerified) > maxAge {
		return nil, nil
	}

	target := m.TargetTrack()
	return &target, nil
}

func (s *MemoryStore) SaveMatch(source, target models.Track, confidence float64, verified bool) (*models.MatchRecord, error) {
	record := models.NewMatchRecord(source, target, confidence, verified, s.now())
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := record.Key()
	if existing, ok := s.matches[key]; ok && record.Keyed() {
		record.ID = existing.ID
		record.Sequence = existing.Sequence
		record.CreatedAt = existing.CreatedAt
		if existing.TargetPlatformID == record.TargetPlatformID {
			record.ManuallyVerified = existing.ManuallyVerified || verified
		}
	} else {
		s.sequence++
		record.ID = shared.GenerateID()
		record.Sequence = s.sequence
		if !record.Keyed() {
			key = record.ID
		}
	}
	s.matches[key] = record

	if s.record {
		s.history = append(s.history, &models.MatchHistoryEntry{
			ID:               shared.GenerateID(),
			MatchID:          record.ID,
			SourcePlatform:   record.SourcePlatform,
			SourcePlatformID: record.SourcePlatformID,
			TargetPlatform:   record.TargetPlatform,
			TargetPlatformID: record.TargetPlatformID,
			TargetTitle:      record.TargetTitle,
			TargetArtists:    append([]string(nil), record.TargetArtists...),
			TargetAlbum:      record.TargetAlbum,
			Confidence:       record.Confidence,
			ManuallyVerified: record.ManuallyVerified,
			RecordedAt:       record.UpdatedAt,
		})
	}

	saved := *record
	return &saved, nil
}

func (s *MemoryStore) SaveFailedMatch(source models.Track, targetPlatform, reason string) (*models.FailedMatchRecord, error) {
	record := models.NewFailedMatchRecord(source, targetPlatform, reason, s.now())
	record.ID = shared.GenerateID()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, record)

	saved := *record
	return &saved, nil
}

func (s *MemoryStore) GetMatchStatistics() (*models.MatchStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.MatchStatistics{TotalMatches: len(s.matches), FailedMatches: len(s.failures)}
	for _, m := range s.matches {
		if m.ManuallyVerified {
			stats.VerifiedMatches++
		}
	}
	return stats, nil
}

func (s *MemoryStore) UpdateMatchVerification(id string, verified bool) (*models.MatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.matches {
		if m.ID == id {
			now := s.now()
			m.ManuallyVerified = verified
			m.LastVerified = now
			m.UpdatedAt = now
			updated := *m
			return &updated, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) GetMatchByID(id string) (*models.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.matches {
		if m.ID == id {
			found := *m
			return &found, nil
		}
	}
	return nil, shared.ErrMatchNotFound
}

func (s *MemoryStore) ListMatches(criteria models.MatchCriteria) ([]*models.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*models.MatchRecord
	for _, m := range s.matches {
		if criteria.SourcePlatform != "" && m.SourcePlatform != criteria.SourcePlatform {
			continue
		}
		if criteria.TargetPlatform != "" && m.TargetPlatform != criteria.TargetPlatform {
			continue
		}
		if criteria.Verified != nil && m.ManuallyVerified != *criteria.Verified {
			continue
		}
		if criteria.MaxConfidence > 0 && m.Confidence >= criteria.MaxConfidence {
			continue
		}
		found := *m
		matches = append(matches, &found)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Sequence < matches[j].Sequence })

	if criteria.Limit > 0 && len(matches) > criteria.Limit {
		matches = matches[:criteria.Limit]
	}
	return matches, nil
}

func (s *MemoryStore) ListFailedMatches(criteria models.FailureCriteria) ([]*models.FailedMatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var failures []*models.FailedMatchRecord
	for _, f := range s.failures {
		if criteria.SourcePlatform != "" && f.SourcePlatform != criteria.SourcePlatform {
			continue
		}
		if criteria.TargetPlatform != "" && f.TargetPlatform != criteria.TargetPlatform {
			continue
		}
		found := *f
		failures = append(failures, &found)
		if criteria.Limit > 0 && len(failures) == criteria.Limit {
			break
		}
	}
	return failures, nil
}

func (s *MemoryStore) ListMatchHistory(source models.Track, targetPlatform string) ([]*models.MatchHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []*models.MatchHistoryEntry
	for _, e := range s.history {
		if e.SourcePlatform == source.Platform && e.SourcePlatformID == source.PlatformID && e.TargetPlatform == targetPlatform {
			found := *e
			entries = append(entries, &found)
		}
	}
	return entries, nil
}
