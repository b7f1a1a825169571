package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/maltier/internal/models"
	"github.com/desertthunder/maltier/internal/sessions"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SessionListView ViewState = iota
	EntryListView
)

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	manager     *sessions.Manager
	fetcher     *sessions.Fetcher
	width       int
	height      int
	sessionList list.Model
	entryList   list.Model
	selected    string
	kind        models.ListKind
	loading     bool
	err         error
	help        help.Model
	keys        keyMap
}

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	refresh key.Binding
	anime   key.Binding
	manga   key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		anime: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "anime"),
		),
		manga: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "manga"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.back, k.refresh},
		{k.anime, k.manga, k.quit},
	}
}

type sessionsLoadedMsg struct {
	sessions []*models.Session
}

type entriesFetchedMsg struct {
	entries []models.ListEntry
	err     error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, manager *sessions.Manager, fetcher *sessions.Fetcher) *Model {
	return &Model{
		ctx:     ctx,
		view:    SessionListView,
		manager: manager,
		fetcher: fetcher,
		kind:    models.KindAnime,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init initializes the TUI by loading the known sessions.
func (m *Model) Init() tea.Cmd {
	return m.loadSessions()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.sessionList.Width() == 0 {
			m.sessionList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.entryList.Width() == 0 {
			m.entryList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SessionListView:
			return m.handleSessionListKeys(msg)
		case EntryListView:
			return m.handleEntryListKeys(msg)
		}

	case sessionsLoadedMsg:
		items := make([]list.Item, len(msg.sessions))
		for i, sess := range msg.sessions {
			items[i] = sessionItem{session: sess}
		}
		m.sessionList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.sessionList.Title = "Sessions"
		m.sessionList.SetSize(m.width-4, m.height-8)
		return m, nil

	case entriesFetchedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.view = SessionListView
			return m, nil
		}
		items := make([]list.Item, len(msg.entries))
		for i, e := range msg.entries {
			items[i] = entryItem{entry: e}
		}
		m.entryList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.entryList.Title = fmt.Sprintf("%s (%d entries)", m.kind, len(msg.entries))
		m.entryList.SetSize(m.width-4, m.height-8)
		m.view = EntryListView
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress enter to retry, q to quit", m.err))
	}
	if m.loading {
		return styles.title.Render("Fetching list...")
	}

	switch m.view {
	case SessionListView:
		return m.renderSessionList()
	case EntryListView:
		return m.renderEntryList()
	default:
		return ""
	}
}

func (m *Model) handleSessionListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		m.err = nil
		selected := m.sessionList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(sessionItem); ok {
				m.selected = item.session.ID
				m.loading = true
				return m, m.fetchEntries(false)
			}
		}
	}

	var cmd tea.Cmd
	m.sessionList, cmd = m.sessionList.Update(msg)
	return m, cmd
}

func (m *Model) handleEntryListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = SessionListView
		return m, m.loadSessions()
	case "r":
		m.loading = true
		return m, m.fetchEntries(true)
	case "a":
		if m.kind != models.KindAnime {
			m.kind = models.KindAnime
			m.loading = true
			return m, m.fetchEntries(false)
		}
	case "m":
		if m.kind != models.KindManga {
			m.kind = models.KindManga
			m.loading = true
			return m, m.fetchEntries(false)
		}
	}

	var cmd tea.Cmd
	m.entryList, cmd = m.entryList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SessionListView:
		m.sessionList, cmd = m.sessionList.Update(msg)
	case EntryListView:
		m.entryList, cmd = m.entryList.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadSessions() tea.Cmd {
	return func() tea.Msg {
		return sessionsLoadedMsg{sessions: m.manager.Sessions()}
	}
}

func (m *Model) fetchEntries(force bool) tea.Cmd {
	sessionID, kind := m.selected, m.kind
	return func() tea.Msg {
		entries, err := m.fetcher.GetList(m.ctx, sessionID, kind, force)
		return entriesFetchedMsg{entries: entries, err: err}
	}
}

func (m *Model) renderSessionList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.sessionList.View(), helpView)
}

func (m *Model) renderEntryList() string {
	helpKeys := []key.Binding{m.keys.refresh, m.keys.anime, m.keys.manga, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.entryList.View(), helpView)
}
