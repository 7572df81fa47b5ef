package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tunematch/internal/matcher"
	"github.com/desertthunder/tunematch/internal/models"
	"github.com/desertthunder/tunematch/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ListView ViewState = iota
	DetailView
)

// ReviewStore is the subset of the match store the review TUI reads and writes.
type ReviewStore interface {
	ListMatches(criteria models.MatchCriteria) ([]*models.MatchRecord, error)
	UpdateMatchVerification(id string, verified bool) (*models.MatchRecord, error)
}

// Model represents the TUI application state.
type Model struct {
	view     ViewState
	store    ReviewStore
	cfg      matcher.Config
	criteria models.MatchCriteria
	width    int
	height   int
	ready    bool
	matches  list.Model
	records  []*models.MatchRecord
	selected *models.MatchRecord
	status   string
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a review model. Only unverified matches are listed regardless of criteria.Verified.
func NewModel(store ReviewStore, cfg matcher.Config, criteria models.MatchCriteria) *Model {
	unverified := false
	criteria.Verified = &unverified
	return &Model{
		view:     ListView,
		store:    store,
		cfg:      cfg,
		criteria: criteria,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init initializes the TUI by loading unverified matches.
func (m *Model) Init() tea.Cmd {
	return m.loadMatches()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.ready {
			m.matches.SetSize(m.listSize())
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ListView:
			return m.handleListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case Msg:
		switch msg.kind {
		case MsgMatchesLoaded:
			return m.onMatchesLoaded(msg.data.(matchesLoaded))
		case MsgVerificationUpdated:
			return m.onVerificationUpdated(msg.data.(verificationUpdated))
		}
	}

	if m.ready {
		var cmd tea.Cmd
		m.matches, cmd = m.matches.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}
	if !m.ready {
		return "Loading matches..."
	}

	switch m.view {
	case ListView:
		return m.renderList()
	case DetailView:
		return m.renderDetail()
	default:
		return ""
	}
}

// Records returns the loaded matches in display order.
func (m *Model) Records() []*models.MatchRecord {
	return m.records
}

func (m *Model) listSize() (int, int) {
	return max(m.width-4, 20), max(m.height-8, 5)
}

func (m *Model) onMatchesLoaded(data matchesLoaded) (tea.Model, tea.Cmd) {
	if data.err != nil {
		m.err = data.err
		return m, nil
	}

	records := data.records
	sort.SliceStable(records, func(i, j int) bool { return records[i].Confidence < records[j].Confidence })
	m.records = records

	items := make([]list.Item, len(records))
	for i, r := range records {
		items[i] = m.item(r)
	}

	w, h := m.listSize()
	m.matches = list.New(items, list.NewDefaultDelegate(), w, h)
	m.matches.Title = fmt.Sprintf("Unverified matches (%d)", len(records))
	m.matches.SetShowHelp(false)
	m.ready = true
	m.view = ListView
	m.selected = nil
	return m, nil
}

func (m *Model) onVerificationUpdated(data verificationUpdated) (tea.Model, tea.Cmd) {
	if data.err != nil {
		m.status = styles.err.Render(fmt.Sprintf("Update failed: %v", data.err))
		return m, nil
	}

	for i, r := range m.records {
		if r.ID != data.id {
			continue
		}
		updated := *r
		updated.ManuallyVerified = data.verified
		if data.record != nil {
			updated.LastVerified = data.record.LastVerified
			updated.UpdatedAt = data.record.UpdatedAt
		}
		m.records[i] = &updated
		m.matches.SetItem(i, m.item(&updated))
		if m.selected != nil && m.selected.ID == data.id {
			m.selected = &updated
		}

		action := "Unverified"
		if data.verified {
			action = "Verified"
		}
		m.status = styles.ok.Render(fmt.Sprintf("%s %s", action, updated.SourceTrack().String()))
		break
	}
	return m, nil
}

func (m *Model) item(r *models.MatchRecord) matchItem {
	return matchItem{record: r, band: m.cfg.Classify(r.Confidence)}
}

func (m *Model) selectedRecord() *models.MatchRecord {
	if it, ok := m.matches.SelectedItem().(matchItem); ok {
		return it.record
	}
	return nil
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) && (!m.ready || m.matches.FilterState() != list.Filtering) {
		return m, tea.Quit
	}
	if !m.ready {
		return m, nil
	}
	if m.matches.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.matches, cmd = m.matches.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.enter):
		if r := m.selectedRecord(); r != nil {
			m.selected = r
			m.view = DetailView
		}
		return m, nil
	case key.Matches(msg, m.keys.verify):
		return m, m.setVerification(m.selectedRecord(), true)
	case key.Matches(msg, m.keys.unverify):
		return m, m.setVerification(m.selectedRecord(), false)
	case key.Matches(msg, m.keys.reload):
		m.status = ""
		return m, m.loadMatches()
	}

	var cmd tea.Cmd
	m.matches, cmd = m.matches.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ListView
		m.selected = nil
	case key.Matches(msg, m.keys.verify):
		return m, m.setVerification(m.selected, true)
	case key.Matches(msg, m.keys.unverify):
		return m, m.setVerification(m.selected, false)
	}
	return m, nil
}

func (m *Model) loadMatches() tea.Cmd {
	store, criteria := m.store, m.criteria
	return func() tea.Msg {
		records, err := store.ListMatches(criteria)
		return matchesLoadedMsg(records, err)
	}
}

func (m *Model) setVerification(r *models.MatchRecord, verified bool) tea.Cmd {
	if r == nil {
		return nil
	}
	store, id := m.store, r.ID
	return func() tea.Msg {
		updated, err := store.UpdateMatchVerification(id, verified)
		if err == nil && updated == nil {
			err = fmt.Errorf("%w: %s", shared.ErrMatchNotFound, id)
		}
		return verificationUpdatedMsg(id, verified, updated, err)
	}
}

func (m *Model) renderList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.verify, m.keys.unverify, m.keys.reload, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if len(m.records) == 0 {
		return fmt.Sprintf("%s\n%s", styles.title.Render("No unverified matches"), helpView)
	}

	body := m.matches.View()
	if m.status != "" {
		body = fmt.Sprintf("%s\n%s", body, m.status)
	}
	return fmt.Sprintf("%s\n\n%s", body, helpView)
}

func (m *Model) renderDetail() string {
	r := m.selected
	if r == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("Match %s", r.ID)))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(styles.label.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	row("Source", fmt.Sprintf("%s:%s", r.SourcePlatform, r.SourcePlatformID))
	row("", r.SourceTrack().String())
	if r.SourceAlbum != "" {
		row("", r.SourceAlbum)
	}
	b.WriteString("\n")

	row("Target", fmt.Sprintf("%s:%s", r.TargetPlatform, r.TargetPlatformID))
	row("", r.TargetTrack().String())
	if r.TargetAlbum != "" {
		row("", r.TargetAlbum)
	}
	b.WriteString("\n")

	band := m.cfg.Classify(r.Confidence)
	row("Score", styles.Band(band).Render(fmt.Sprintf("%.4f %s", r.Confidence, band)))
	row("Verified", fmt.Sprintf("%t", r.ManuallyVerified))
	row("Checked", r.LastVerified.Local().Format(time.DateTime))

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.status)
		b.WriteString("\n")
	}

	helpKeys := []key.Binding{m.keys.verify, m.keys.unverify, m.keys.back, m.keys.quit}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return b.String()
}
