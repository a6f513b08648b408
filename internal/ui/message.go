package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/uidx/internal/models"
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
	MsgGroupsLoaded MsgKind = iota
	MsgRecordsChecked
)

type groupsLoaded struct {
	snapshot *models.Snapshot
	groups   []models.DuplicateGroup
	err      error
}

type recordsChecked struct {
	uid       string
	redirects []models.Redirect
	err       error
}

// groupsLoadedMsg is the constructor for [MsgGroupsLoaded]
func groupsLoadedMsg(snapshot *models.Snapshot, groups []models.DuplicateGroup, err error) Msg {
	return Msg{kind: MsgGroupsLoaded, data: groupsLoaded{snapshot, groups, err}}
}

// recordsCheckedMsg is the constructor for [MsgRecordsChecked]
func recordsCheckedMsg(uid string, redirects []models.Redirect, err error) Msg {
	return Msg{kind: MsgRecordsChecked, data: recordsChecked{uid, redirects, err}}
}
