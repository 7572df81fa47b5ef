package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tunematch/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgMatchesLoaded MsgKind = iota
	MsgVerificationUpdated
)

type matchesLoaded struct {
	records []*models.MatchRecord
	err     error
}

type verificationUpdated struct {
	id       string
	verified bool
	record   *models.MatchRecord
	err      error
}

// matchesLoadedMsg is the constructor for [MsgMatchesLoaded]
func matchesLoadedMsg(records []*models.MatchRecord, err error) Msg {
	return Msg{kind: MsgMatchesLoaded, data: matchesLoaded{records, err}}
}

// verificationUpdatedMsg is the constructor for [MsgVerificationUpdated]
func verificationUpdatedMsg(id string, verified bool, record *models.MatchRecord, err error) Msg {
	return Msg{kind: MsgVerificationUpdated, data: verificationUpdated{id, verified, record, err}}
}
