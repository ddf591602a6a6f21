package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

type cursorMode int

const (
	modeNormal cursorMode = iota
	modeSelect
	modeUnselect
)

func (m cursorMode) String() string {
	switch m {
	case modeSelect:
		return "Select"
	case modeUnselect:
		return "Unselect"
	default:
		return "Normal"
	}
}

type deletePhase int

const (
	deleteIdle deletePhase = iota
	deleteConfirm
	deleteRunning
)

// notifyMsg is pumped from the capacity-1 notification channel: some
// lock-guarded state changed, refresh the table.
type notifyMsg struct{}

type keyMap struct {
	ToggleSelect key.Binding
	SelectMode   key.Binding
	UnselectMode key.Binding
	Delete       key.Binding
	Escape       key.Binding
	Help         key.Binding
	Quit         key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		ToggleSelect: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "toggle select"),
		),
		SelectMode: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "select mode"),
		),
		UnselectMode: key.NewBinding(
			key.WithKeys("V"),
			key.WithHelp("V", "unselect mode"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete selected"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "normal mode"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ToggleSelect, k.Delete, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ToggleSelect, k.SelectMode, k.UnselectMode, k.Escape},
		{k.Delete, k.Help, k.Quit},
	}
}

type styles struct {
	base      lipgloss.Style
	container lipgloss.Style
	header    lipgloss.Style
	title     lipgloss.Style
	status    lipgloss.Style
	muted     lipgloss.Style
	accent    lipgloss.Style
	danger    lipgloss.Style
	confirm   lipgloss.Style
	chip      lipgloss.Style
}

var ui = styles{
	base: lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("238")),
	container: lipgloss.NewStyle().Padding(0, 1),
	header:    lipgloss.NewStyle().Padding(0, 1),
	title:     lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
	status:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	accent:    lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
	danger:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
	confirm:   lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("203")).Bold(true).Padding(0, 1),
	chip:      lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("62")).Padding(0, 1),
}

type model struct {
	table table.Model
	help  help.Model
	keys  keyMap

	items          *NotifyRwLock[[]ProjectAnalysis]
	selected       map[uuid.UUID]struct{}
	scanProgress   *NotifyRwLock[Progress]
	deletePhase    deletePhase
	deleteProgress *NotifyRwLock[Progress]

	mode        cursorMode
	dryRun      bool
	dryRunPause time.Duration
	searchRoot  string
	notify      chan struct{}
	lastEvent   string

	width     int
	height    int
	scanBar   progress.Model
	deleteBar progress.Model
}

// NewModel wires the TUI around the shared scan state. The notify channel
// is both the receive side the model waits on and the send side handed to
// every NotifyRwLock it creates.
func NewModel(searchRoot string, dryRun bool, notify chan struct{}, scanProgress *NotifyRwLock[Progress]) model {
	columns := []table.Column{
		{Title: "Project Path", Width: 56},
		{Title: "Project Name", Width: 24},
		{Title: "Size", Width: 12},
		{Title: "Status", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
	)
	tableStyles := table.DefaultStyles()
	tableStyles.Header = tableStyles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("238")).
		BorderBottom(true).
		Bold(true)
	tableStyles.Selected = tableStyles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(true)
	t.SetStyles(tableStyles)

	return model{
		table:        t,
		help:         help.New(),
		keys:         newKeyMap(),
		items:        NewNotifyRwLock[[]ProjectAnalysis](notify, nil),
		selected:     map[uuid.UUID]struct{}{},
		scanProgress: scanProgress,
		mode:         modeNormal,
		dryRun:       dryRun,
		dryRunPause:  defaultDryRunPause,
		searchRoot:   searchRoot,
		notify:       notify,
		scanBar:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		deleteBar:    progress.New(progress.WithDefaultGradient()),
	}
}

func (m model) Init() tea.Cmd {
	return waitNotify(m.notify)
}

// waitNotify blocks on the coalescing notification channel and turns each
// token into a redraw. Absence of a token never means "no change", only
// that one is already being handled.
func waitNotify(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return notifyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.updateLayout(msg.Width, msg.Height)
		m.syncRows()
	case notifyMsg:
		m.syncRows()
		cmds = append(cmds, waitNotify(m.notify))
	case tea.KeyMsg:
		if m.deletePhase == deleteConfirm {
			switch msg.String() {
			case "Y":
				m.confirmDelete()
			case "n", "N", "esc":
				m.deletePhase = deleteIdle
				m.lastEvent = "Deletion cancelled"
			}
			break
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Escape):
			m.mode = modeNormal
			m.help.ShowAll = false
		case key.Matches(msg, m.keys.ToggleSelect):
			m.toggleSelected()
		case key.Matches(msg, m.keys.SelectMode):
			m.mode = modeSelect
			m.afterMove()
		case key.Matches(msg, m.keys.UnselectMode):
			m.mode = modeUnselect
			m.afterMove()
		case key.Matches(msg, m.keys.Delete):
			m.handleDeleteKey()
		default:
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			m.afterMove()
			m.syncRows()
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading…"
	}

	view := lipgloss.JoinVertical(
		lipgloss.Left,
		m.headerView(),
		m.scanView(),
		ui.base.Render(m.table.View()),
		m.statusView(),
		m.footerView(),
	)
	return ui.container.Render(view)
}

func (m *model) updateLayout(width, height int) {
	if width == 0 || height == 0 {
		return
	}
	width = max(width, 60)
	height = max(height, 12)
	m.width = width
	m.height = height

	nameWidth := 24
	sizeWidth := 12
	statusWidth := 10
	pathWidth := max(width-nameWidth-sizeWidth-statusWidth-12, 20)
	m.table.SetColumns([]table.Column{
		{Title: "Project Path", Width: pathWidth},
		{Title: "Project Name", Width: nameWidth},
		{Title: "Size", Width: sizeWidth},
		{Title: "Status", Width: statusWidth},
	})

	headerHeight := lipgloss.Height(m.headerView())
	scanHeight := lipgloss.Height(m.scanView())
	statusHeight := lipgloss.Height(m.statusView())
	footerHeight := lipgloss.Height(m.footerView())
	m.table.SetHeight(max(height-headerHeight-scanHeight-statusHeight-footerHeight-4, 5))
	m.table.SetWidth(width - 4)

	barWidth := max(width-28, 20)
	m.scanBar.Width = barWidth
	m.deleteBar.Width = barWidth
}

// syncRows rebuilds the table from the shared list. Called whenever a
// notification fires or selection state changes.
func (m *model) syncRows() {
	items := m.items.Snapshot()
	rows := make([]table.Row, 0, len(items))
	for _, item := range items {
		name := item.ProjectName
		if name == "" {
			name = "NOT FOUND NAME"
		}
		status := ""
		if _, ok := m.selected[item.ID]; ok {
			status = ui.accent.Render("selected")
		}
		rows = append(rows, table.Row{
			item.ProjectPath,
			name,
			humanize.IBytes(item.Size),
			status,
		})
	}
	m.table.SetRows(rows)
}

// afterMove applies the sticky cursor mode to the row under the cursor,
// so moving in Select/Unselect mode sweeps the selection along.
func (m *model) afterMove() {
	switch m.mode {
	case modeSelect:
		if id, ok := m.cursorID(); ok {
			m.selected[id] = struct{}{}
		}
	case modeUnselect:
		if id, ok := m.cursorID(); ok {
			delete(m.selected, id)
		}
	}
}

func (m *model) toggleSelected() {
	id, ok := m.cursorID()
	if !ok {
		return
	}
	if _, selected := m.selected[id]; selected {
		delete(m.selected, id)
	} else {
		m.selected[id] = struct{}{}
	}
	m.syncRows()
}

func (m *model) cursorID() (uuid.UUID, bool) {
	items := m.items.Snapshot()
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(items) {
		return uuid.UUID{}, false
	}
	return items[idx].ID, true
}

// handleDeleteKey opens the confirm popup, or closes a finished delete
// pass by dropping the deleted rows.
func (m *model) handleDeleteKey() {
	switch m.deletePhase {
	case deleteIdle:
		m.deletePhase = deleteConfirm
	case deleteRunning:
		if !m.deleteProgress.Snapshot().Done() {
			return
		}
		ids := m.selected
		m.items.Write(func(list *[]ProjectAnalysis) {
			*list = removeByID(*list, ids)
		})
		m.selected = map[uuid.UUID]struct{}{}
		m.deletePhase = deleteIdle
		m.deleteProgress = nil
		m.syncRows()
	}
}

func (m *model) confirmDelete() {
	targets := make([]ProjectAnalysis, 0, len(m.selected))
	for _, item := range m.items.Snapshot() {
		if _, ok := m.selected[item.ID]; ok {
			item.SelectedForCleanup = true
			targets = append(targets, item)
		}
	}
	m.deleteProgress = StartDelete(targets, m.dryRun, m.dryRunPause, m.notify)
	m.deletePhase = deleteRunning
	m.lastEvent = fmt.Sprintf("Deleting %d project(s)…", len(targets))
}

func (m model) headerView() string {
	title := ui.title.Render("cratesweep")
	line := title
	if m.dryRun {
		line = lipgloss.JoinHorizontal(lipgloss.Left, title, " ", ui.chip.Render("dry-run"))
	}
	root := ui.muted.Render(fmt.Sprintf("Root: %s", m.searchRoot))
	return ui.header.Render(lipgloss.JoinVertical(lipgloss.Left, line, root))
}

func (m model) scanView() string {
	p := m.scanProgress.Snapshot()
	label := fmt.Sprintf("Scanning %6d / %6d", p.Scanned, p.Total)
	if p.Done() {
		label = "Finished"
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, ui.status.Render(label), " ", m.scanBar.ViewAs(p.Ratio()))
}

func (m model) statusView() string {
	items := m.items.Snapshot()
	var totalSize, selectedSize uint64
	for _, item := range items {
		totalSize += item.Size
		if _, ok := m.selected[item.ID]; ok {
			selectedSize += item.Size
		}
	}

	status := fmt.Sprintf(
		"Total: %s · Selected: %s (%d)",
		humanize.IBytes(totalSize), humanize.IBytes(selectedSize), len(m.selected),
	)
	modeChip := ui.chip.Render(m.mode.String())
	line := lipgloss.JoinHorizontal(lipgloss.Left, ui.status.Render(status), "  ", modeChip)

	switch m.deletePhase {
	case deleteConfirm:
		prompt := fmt.Sprintf(
			"Are you sure you want to delete the target directory of %d project(s)? (Y/n)",
			len(m.selected),
		)
		return lipgloss.JoinVertical(lipgloss.Left, line, ui.confirm.Render(prompt))
	case deleteRunning:
		p := m.deleteProgress.Snapshot()
		label := fmt.Sprintf("Deleting %6d / %6d", p.Scanned, p.Total)
		if m.dryRun {
			label += " (dry-run)"
		}
		if p.Done() {
			label = "Finished. Press d to close"
		}
		bar := lipgloss.JoinHorizontal(lipgloss.Left, ui.danger.Render(label), " ", m.deleteBar.ViewAs(p.Ratio()))
		return lipgloss.JoinVertical(lipgloss.Left, line, bar)
	}
	return line
}

func (m model) footerView() string {
	if m.lastEvent != "" {
		return lipgloss.JoinVertical(lipgloss.Left, ui.muted.Render(m.lastEvent), m.help.View(m.keys))
	}
	return m.help.View(m.keys)
}
