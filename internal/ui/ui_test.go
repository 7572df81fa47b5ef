package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tunematch/internal/matcher"
	"github.com/desertthunder/tunematch/internal/models"
	"github.com/desertthunder/tunematch/internal/repositories"
	"github.com/desertthunder/tunematch/internal/shared"
)

type failingStore struct{ err error }

func (s failingStore) ListMatches(models.MatchCriteria) ([]*models.MatchRecord, error) {
	return nil, s.err
}

func (s failingStore) UpdateMatchVerification(string, bool) (*models.MatchRecord, error) {
	return nil, s.err
}

func track(platform, id, title, artist string) models.Track {
	return models.Track{
		Title:      title,
		Artists:    models.ArtistsFromNames([]string{artist}),
		Platform:   platform,
		PlatformID: id,
	}
}

func seedStore(t *testing.T) *repositories.MemoryStore {
	t.Helper()
	store := repositories.NewMemoryStore(false)

	seed := []struct {
		id         string
		title      string
		confidence float64
		verified   bool
	}{
		{"sp1", "Hey Ya!", 0.95, false},
		{"sp2", "Roses", 0.72, false},
		{"sp3", "Ms. Jackson", 0.81, false},
		{"sp4", "B.O.B", 0.99, true},
	}
	for _, s := range seed {
		source := track("spotify", s.id, s.title, "OutKast")
		target := track("youtube", "yt-"+s.id, s.title, "Outkast")
		if _, err := store.SaveMatch(source, target, s.confidence, s.verified); err != nil {
			t.Fatalf("failed to seed match: %v", err)
		}
	}
	return store
}

func press(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// run feeds the result of cmd back into the model, like the bubbletea runtime would.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	m.Update(cmd())
}

func loadedModel(t *testing.T, store ReviewStore) *Model {
	t.Helper()
	m := NewModel(store, matcher.DefaultConfig(), models.MatchCriteria{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	run(t, m, m.Init())
	return m
}

func TestModel(t *testing.T) {
	t.Run("lists unverified matches lowest confidence first", func(t *testing.T) {
		m := loadedModel(t, seedStore(t))

		records := m.Records()
		if len(records) != 3 {
			t.Fatalf("expected 3 unverified matches, got %d", len(records))
		}
		for i, want := range []string{"Roses", "Ms. Jackson", "Hey Ya!"} {
			if records[i].SourceTitle != want {
				t.Errorf("position %d: expected %s, got %s", i, want, records[i].SourceTitle)
			}
		}

		view := m.View()
		if !strings.Contains(view, "Unverified matches (3)") {
			t.Errorf("expected list title in view, got:\n%s", view)
		}
	})

	t.Run("verify and unverify selected match", func(t *testing.T) {
		store := seedStore(t)
		m := loadedModel(t, store)

		_, cmd := m.Update(press('v'))
		run(t, m, cmd)

		first := m.Records()[0]
		if !first.ManuallyVerified {
			t.Error("expected selected match to be verified in the model")
		}
		stored, err := store.GetMatchByID(first.ID)
		if err != nil {
			t.Fatalf("GetMatchByID failed: %v", err)
		}
		if !stored.ManuallyVerified {
			t.Error("expected verification to be persisted")
		}
		if !strings.Contains(m.status, "Verified") {
			t.Errorf("expected status message, got %q", m.status)
		}

		_, cmd = m.Update(press('u'))
		run(t, m, cmd)

		stored, err = store.GetMatchByID(first.ID)
		if err != nil {
			t.Fatalf("GetMatchByID failed: %v", err)
		}
		if stored.ManuallyVerified || m.Records()[0].ManuallyVerified {
			t.Error("expected verification to be cleared")
		}
	})

	t.Run("detail view", func(t *testing.T) {
		store := seedStore(t)
		m := loadedModel(t, store)

		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.view != DetailView || m.selected == nil {
			t.Fatal("expected detail view for the selected match")
		}

		view := m.View()
		for _, want := range []string{"spotify:sp2", "youtube:yt-sp2", "OutKast - Roses", "0.7200 medium"} {
			if !strings.Contains(view, want) {
				t.Errorf("detail view missing %q\n%s", want, view)
			}
		}

		_, cmd := m.Update(press('v'))
		run(t, m, cmd)
		if !m.selected.ManuallyVerified {
			t.Error("expected detail selection to reflect verification")
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != ListView || m.selected != nil {
			t.Error("expected esc to return to the list")
		}
	})

	t.Run("reload drops verified matches", func(t *testing.T) {
		m := loadedModel(t, seedStore(t))

		_, cmd := m.Update(press('v'))
		run(t, m, cmd)

		_, cmd = m.Update(press('r'))
		run(t, m, cmd)

		if len(m.Records()) != 2 {
			t.Errorf("expected 2 unverified matches after reload, got %d", len(m.Records()))
		}
	})

	t.Run("empty store", func(t *testing.T) {
		m := loadedModel(t, repositories.NewMemoryStore(false))

		if !strings.Contains(m.View(), "No unverified matches") {
			t.Errorf("expected empty message, got:\n%s", m.View())
		}
		if _, cmd := m.Update(press('v')); cmd != nil {
			t.Error("verify without a selection should do nothing")
		}
	})

	t.Run("load error", func(t *testing.T) {
		m := loadedModel(t, failingStore{err: shared.ErrStorage})

		if !errors.Is(m.err, shared.ErrStorage) {
			t.Errorf("expected ErrStorage, got %v", m.err)
		}
		if !strings.Contains(m.View(), "Error:") {
			t.Errorf("expected error view, got:\n%s", m.View())
		}
	})

	t.Run("update error", func(t *testing.T) {
		m := NewModel(failingStore{err: shared.ErrStorage}, matcher.DefaultConfig(), models.MatchCriteria{})
		m.Update(matchesLoadedMsg([]*models.MatchRecord{{ID: "m1", SourceTitle: "Roses", Confidence: 0.7}}, nil))

		_, cmd := m.Update(press('v'))
		run(t, m, cmd)

		if m.Records()[0].ManuallyVerified {
			t.Error("failed update should not change the record")
		}
		if !strings.Contains(m.status, "Update failed") {
			t.Errorf("expected failure status, got %q", m.status)
		}
	})

	t.Run("quit", func(t *testing.T) {
		m := loadedModel(t, seedStore(t))

		_, cmd := m.Update(press('q'))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestMatchItem(t *testing.T) {
	record := models.NewMatchRecord(
		track("spotify", "sp1", "Hey Ya!", "OutKast"),
		track("youtube", "yt1", "Hey Ya", "Outkast"),
		0.93, true, time.Now(),
	)
	item := matchItem{record: record, band: matcher.BandHigh}

	if got := item.Title(); got != "✓ OutKast - Hey Ya!" {
		t.Errorf("unexpected title %q", got)
	}
	if got := item.Description(); got != "→ Outkast - Hey Ya • youtube 0.93 high" {
		t.Errorf("unexpected description %q", got)
	}
	if got := item.FilterValue(); got != "Hey Ya! Hey Ya" {
		t.Errorf("unexpected filter value %q", got)
	}
}
