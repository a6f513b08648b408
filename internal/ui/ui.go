package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/uidx/internal/models"
	"github.com/desertthunder/uidx/internal/shared"
	"github.com/desertthunder/uidx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	GroupListView ViewState = iota
	GroupDetailView
)

// SnapshotLoader reads the persisted state the browser displays.
type SnapshotLoader interface {
	Load(ctx context.Context) (*models.Snapshot, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	store    SnapshotLoader
	resolver *tasks.Resolver
	canCheck bool

	width     int
	height    int
	groupList list.Model
	groups    []models.DuplicateGroup
	snapshot  *models.Snapshot
	selected  *models.DuplicateGroup

	checking   bool
	checked    bool
	unfinished []models.Redirect

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model. records may be nil, which disables record checks.
func NewModel(ctx context.Context, store SnapshotLoader, records tasks.RecordChecker) *Model {
	return &Model{
		ctx:      ctx,
		view:     GroupListView,
		store:    store,
		resolver: tasks.NewResolver(records),
		canCheck: records != nil,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init loads the snapshot and its duplicate groups.
func (m *Model) Init() tea.Cmd {
	return m.loadGroups()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeList()
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case GroupListView:
			return m.handleGroupListKeys(msg)
		case GroupDetailView:
			return m.handleGroupDetailKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	if m.snapshot == nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.groupList, cmd = m.groupList.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgGroupsLoaded:
		data := msg.data.(groupsLoaded)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.snapshot = data.snapshot
		m.groups = data.groups

		items := make([]list.Item, len(data.groups))
		for i, g := range data.groups {
			items[i] = groupItem{group: g}
		}
		m.groupList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.groupList.Title = fmt.Sprintf("Duplicate UIds (%d)", len(data.groups))
		m.resizeList()
		return m, nil

	case MsgRecordsChecked:
		data := msg.data.(recordsChecked)
		if m.selected == nil || m.selected.UId != data.uid {
			return m, nil
		}
		m.checking = false
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.checked = true
		m.unfinished = data.redirects
		return m, nil
	}
	return m, nil
}

func (m *Model) handleGroupListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.snapshot == nil {
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		return m, nil
	}
	if m.groupList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.groupList, cmd = m.groupList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.groupList.SelectedItem().(groupItem); ok {
			group := item.group
			m.selected = &group
			m.resetCheck()
			m.view = GroupDetailView
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.groupList, cmd = m.groupList.Update(msg)
	return m, cmd
}

func (m *Model) handleGroupDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = GroupListView
		m.selected = nil
		m.resetCheck()
		return m, nil
	case key.Matches(msg, m.keys.check):
		if !m.canCheck || m.checking || m.selected == nil {
			return m, nil
		}
		m.checking = true
		m.err = nil
		return m, m.checkRecords(*m.selected)
	}
	return m, nil
}

func (m *Model) resetCheck() {
	m.checking = false
	m.checked = false
	m.unfinished = nil
	m.err = nil
}

func (m *Model) resizeList() {
	if m.width == 0 || m.snapshot == nil {
		return
	}
	m.groupList.SetSize(m.width-4, m.height-6)
}

func (m *Model) loadGroups() tea.Cmd {
	return func() tea.Msg {
		snapshot, err := m.store.Load(m.ctx)
		if err != nil {
			return groupsLoadedMsg(nil, nil, err)
		}
		return groupsLoadedMsg(snapshot, m.resolver.FindDuplicates(snapshot.Table), nil)
	}
}

// checkRecords resolves a single group in filtered mode.
func (m *Model) checkRecords(group models.DuplicateGroup) tea.Cmd {
	return func() tea.Msg {
		table := models.UIdTable{group.UId: group.TrackIDs}
		redirects, err := m.resolver.Resolve(m.ctx, nil, table, tasks.ModeFiltered)
		return recordsCheckedMsg(group.UId, redirects, err)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view == GroupListView {
		return styles.failure.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case GroupListView:
		return m.renderGroupList()
	case GroupDetailView:
		return m.renderGroupDetail()
	default:
		return ""
	}
}

func (m *Model) renderGroupList() string {
	if m.snapshot == nil {
		return styles.muted.Render("Loading UId table...")
	}
	if len(m.groups) == 0 {
		return fmt.Sprintf("%s\n\n%s", styles.survivor.Render("No duplicate UIds"), m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", m.groupList.View(), styles.muted.Render(m.Summary()), helpView)
}

func (m *Model) renderGroupDetail() string {
	g := m.selected
	if g == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.uid.Render(g.UId))
	b.WriteString("\n")

	survivor := g.Survivor()
	for _, id := range g.TrackIDs {
		b.WriteString(styles.trackLine(id, m.roleOf(id, survivor)))
		b.WriteString("\n")
	}

	redirect := models.Redirect{UId: g.UId, From: g.Unreachable(), To: survivor}
	b.WriteString(fmt.Sprintf("\nRedirect: %s\n", redirect.String()))

	switch {
	case m.checking:
		b.WriteString(styles.muted.Render("\nChecking records..."))
		b.WriteString("\n")
	case m.err != nil:
		b.WriteString(styles.failure.Render(fmt.Sprintf("\nRecord check failed: %v", m.err)))
		b.WriteString("\n")
	case m.checked && len(m.unfinished) == 0:
		b.WriteString(styles.recorded.UnsetStrikethrough().Render("\nEvery unreachable track has records"))
		b.WriteString("\n")
	case m.checked:
		b.WriteString(styles.unfinished.Render("\nUnfinished:"))
		b.WriteString("\n")
		for _, r := range m.unfinished {
			b.WriteString("  " + r.String() + "\n")
		}
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	if m.canCheck {
		helpKeys = []key.Binding{m.keys.check, m.keys.back, m.keys.quit}
	}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return b.String()
}

// trackRole is the part an id plays in the selected group.
type trackRole int

const (
	roleUnreachable trackRole = iota
	roleSurvivor
	roleUnfinished
	roleRecorded
)

// roleOf classifies id, using the last record check when one finished.
func (m *Model) roleOf(id, survivor int) trackRole {
	if id == survivor {
		return roleSurvivor
	}
	if !m.checked {
		return roleUnreachable
	}
	for _, r := range m.unfinished {
		for _, from := range r.From {
			if from == id {
				return roleUnfinished
			}
		}
	}
	return roleRecorded
}

func fmtTrack(id int, role string) string {
	if role == "" {
		return fmt.Sprintf("  %d", id)
	}
	return fmt.Sprintf("  %d (%s)", id, role)
}

// Summary is a one-line description of the loaded table, empty before loading.
func (m *Model) Summary() string {
	if m.snapshot == nil {
		return ""
	}
	return fmt.Sprintf("%d UIds, %d duplicate groups, cursor %s",
		len(m.snapshot.Table), len(m.groups), shared.FormatCursor(m.snapshot.LastTrackID))
}
