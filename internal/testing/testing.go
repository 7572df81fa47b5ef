// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/tunematch/internal/models"
)

// GetMatchCall records the arguments of a [MockStore.GetMatch] call.
type GetMatchCall struct {
	Source         models.Track
	TargetPlatform string
	MinConfidence  float64
	MaxAge         time.Duration
}

// SaveMatchCall records the arguments of a [MockStore.SaveMatch] call.
type SaveMatchCall struct {
	Source     models.Track
	Target     models.Track
	Confidence float64
	Verified   bool
}

// SaveFailedMatchCall records the arguments of a [MockStore.SaveFailedMatch] call.
type SaveFailedMatchCall struct {
	Source         models.Track
	TargetPlatform string
	Reason         string
}

// MockStore is a recording test double for [models.MatchStore].
//
// Cached is returned from every GetMatch call. Err, when set, fails every operation.
type MockStore struct {
	mu sync.Mutex

	Cached *models.Track
	Err    error

	GetMatchCalls        []GetMatchCall
	SaveMatchCalls       []SaveMatchCall
	SaveFailedMatchCalls []SaveFailedMatchCall
	VerificationCalls    map[string]bool
}

func (m *MockStore) GetMatch(source models.Track, targetPlatform string, minConfidence float64, maxAge time.Duration) (*models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetMatchCalls = append(m.GetMatchCalls, GetMatchCall{source, targetPlatform, minConfidence, maxAge})
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Cached, nil
}

func (m *MockStore) SaveMatch(source, target models.Track, confidence float64, verified bool) (*models.MatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveMatchCalls = append(m.SaveMatchCalls, SaveMatchCall{source, target, confidence, verified})
	if m.Err != nil {
		return nil, m.Err
	}
	record := models.NewMatchRecord(source, target, confidence, verified, time.Now().UTC())
	record.ID = fmt.Sprintf("match-%d", len(m.SaveMatchCalls))
	record.Sequence = len(m.SaveMatchCalls)
	return record, nil
}

func (m *MockStore) SaveFailedMatch(source models.Track, targetPlatform, reason string) (*models.FailedMatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveFailedMatchCalls = append(m.SaveFailedMatchCalls, SaveFailedMatchCall{source, targetPlatform, reason})
	if m.Err != nil {
		return nil, m.Err
	}
	record := models.NewFailedMatchRecord(source, targetPlatform, reason, time.Now().UTC())
	record.ID = fmt.Sprintf("failure-%d", len(m.SaveFailedMatchCalls))
	return record, nil
}

func (m *MockStore) GetMatchStatistics() (*models.MatchStatistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	verified := 0
	for _, c := range m.SaveMatchCalls {
		if c.Verified {
			verified++
		}
	}
	return &models.MatchStatistics{
		TotalMatches:    len(m.SaveMatchCalls),
		VerifiedMatches: verified,
		FailedMatches:   len(m.SaveFailedMatchCalls),
	}, nil
}

func (m *MockStore) UpdateMatchVerification(id string, verified bool) (*models.MatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.VerificationCalls == nil {
		m.VerificationCalls = make(map[string]bool)
	}
	m.VerificationCalls[id] = verified
	return &models.MatchRecord{ID: id, ManuallyVerified: verified, LastVerified: time.Now().UTC()}, nil
}

// Saves returns the number of SaveMatch calls.
func (m *MockStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SaveMatchCalls)
}

// Failures returns the number of SaveFailedMatch calls.
func (m *MockStore) Failures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SaveFailedMatchCalls)
}

// MockService is a test double for [services.Service] backed by in-memory playlists.
//
// SearchResults maps a query to its results. Queries without an entry return no tracks.
type MockService struct {
	mu sync.Mutex

	PlatformName  string
	Playlists     map[string]*models.Playlist
	SearchResults map[string][]models.Track
	SearchErr     error
	AddErr        error

	Queries []string
	Added   map[string][]models.Track
	Removed map[string][]models.Track
	Updated []*models.Playlist
}

// NewMockService creates a MockService for the named platform.
func NewMockService(name string) *MockService {
	return &MockService{
		PlatformName:  name,
		Playlists:     make(map[string]*models.Playlist),
		SearchResults: make(map[string][]models.Track),
		Added:         make(map[string][]models.Track),
		Removed:       make(map[string][]models.Track),
	}
}

func (m *MockService) Name() string { return m.PlatformName }

func (m *MockService) SearchTracks(ctx context.Context, query string) ([]models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, query)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return m.SearchResults[query], nil
}

func (m *MockService) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pl, ok := m.Playlists[playlistID]
	if !ok {
		return nil, fmt.Errorf("playlist %s not found", playlistID)
	}
	return pl, nil
}

func (m *MockService) AddTracks(ctx context.Context, playlistID string, tracks []models.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddErr != nil {
		return m.AddErr
	}
	m.Added[playlistID] = append(m.Added[playlistID], tracks...)
	return nil
}

func (m *MockService) RemoveTracks(ctx context.Context, playlistID string, tracks []models.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Removed[playlistID] = append(m.Removed[playlistID], tracks...)
	return nil
}

func (m *MockService) UpdatePlaylist(ctx context.Context, playlist *models.Playlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Updated = append(m.Updated, playlist)
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if err == nil && !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}
