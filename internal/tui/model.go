// Package tui is the terminal dashboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/raphcvrt/Anti-Virus/internal/dashboard"
	"github.com/raphcvrt/Anti-Virus/internal/notify"
)

const refreshEvery = time.Second

// Controller is the part of the dashboard the terminal drives
type Controller interface {
	StartMonitoring(ctx context.Context, folder string) error
	StopMonitoring(ctx context.Context) error
	ScanFile(ctx context.Context, path string) error
	UploadFile(ctx context.Context, name string, r io.Reader) error
	DeleteQuarantineItem(ctx context.Context, name string, confirm dashboard.Confirmer) error
	RefreshAll(ctx context.Context) error
}

// SyncController adapts *dashboard.Sync to Controller
type SyncController struct {
	*dashboard.Sync
}

func (c SyncController) ScanFile(ctx context.Context, path string) error {
	_, err := c.Sync.ScanFile(ctx, path)
	return err
}

func (c SyncController) UploadFile(ctx context.Context, name string, r io.Reader) error {
	_, err := c.Sync.UploadFile(ctx, name, r)
	return err
}

// TableState names the focused table
type TableState string

const (
	HistoryTable    TableState = "history"
	QuarantineTable TableState = "quarantine"
	RecentTable     TableState = "recent"
)

var tableOrder = []TableState{HistoryTable, QuarantineTable, RecentTable}

type inputMode int

const (
	modeBrowse inputMode = iota
	modeFolderPrompt
	modeFilePrompt
	modeUploadPrompt
	modeConfirmDelete
)

type tickMsg time.Time

type actionDoneMsg struct {
	action dashboard.Action
	err    error
}

// Model is the bubbletea model of the terminal dashboard
type Model struct {
	ctx     context.Context
	ctrl    Controller
	screen  *Screen
	feed    *notify.Feed
	keys    keyMap
	help    help.Model
	input   textinput.Model
	tables  map[TableState]*table.Model
	state   TableState
	mode    inputMode
	pending string
	version uint64
	now     func() time.Time
	last    frame
}

// New creates the terminal model. ctx is handed to every action.
func New(ctx context.Context, ctrl Controller, screen *Screen, feed *notify.Feed) *Model {
	input := textinput.New()
	input.CharLimit = 4096
	input.Width = 60

	m := &Model{
		ctx:    ctx,
		ctrl:   ctrl,
		screen: screen,
		feed:   feed,
		keys:   defaultKeyMap(),
		help:   help.New(),
		input:  input,
		tables: map[TableState]*table.Model{
			HistoryTable:    newTable(HistoryColumns),
			QuarantineTable: newTable(QuarantineColumns),
			RecentTable:     newTable(RecentColumns),
		},
		state: HistoryTable,
		now:   time.Now,
	}
	m.tables[m.state].Focus()
	m.sync()
	return m
}

func newTable(columns []table.Column) *table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(tableHeight),
	)
	return &t
}

func tick() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.run(dashboard.ActionRefresh, m.ctrl.RefreshAll))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.sync()
		return m, tick()
	case actionDoneMsg:
		m.sync()
		return m, nil
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			return m, tea.Quit
		}
		switch m.mode {
		case modeFolderPrompt, modeFilePrompt, modeUploadPrompt:
			return m.updatePrompt(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Tab):
		m.focusNext()
		return m, nil
	case key.Matches(msg, m.keys.Start):
		return m, m.prompt(modeFolderPrompt, "Dossier à surveiller")
	case key.Matches(msg, m.keys.Stop):
		return m, m.run(dashboard.ActionStopMonitoring, m.ctrl.StopMonitoring)
	case key.Matches(msg, m.keys.Scan):
		return m, m.prompt(modeFilePrompt, "Fichier à analyser")
	case key.Matches(msg, m.keys.Upload):
		return m, m.prompt(modeUploadPrompt, "Fichier local à envoyer")
	case key.Matches(msg, m.keys.Refresh):
		return m, m.run(dashboard.ActionRefresh, m.ctrl.RefreshAll)
	case key.Matches(msg, m.keys.Delete):
		if m.state != QuarantineTable {
			return m, nil
		}
		name := m.last.quarantineName(m.tables[QuarantineTable].Cursor())
		if name == "" {
			return m, nil
		}
		m.pending = name
		m.mode = modeConfirmDelete
		return m, nil
	}

	t, cmd := m.tables[m.state].Update(msg)
	*m.tables[m.state] = t
	return m, cmd
}

func (m *Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		return m, nil
	case tea.KeyEnter:
		value := m.input.Value()
		mode := m.mode
		m.closePrompt()
		switch mode {
		case modeFolderPrompt:
			return m, m.run(dashboard.ActionStartMonitoring, func(ctx context.Context) error {
				return m.ctrl.StartMonitoring(ctx, value)
			})
		case modeFilePrompt:
			return m, m.run(dashboard.ActionScanFile, func(ctx context.Context) error {
				return m.ctrl.ScanFile(ctx, value)
			})
		case modeUploadPrompt:
			return m, m.run(dashboard.ActionUpload, func(ctx context.Context) error {
				return m.upload(ctx, value)
			})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	name := m.pending
	switch strings.ToLower(msg.String()) {
	case "y", "o":
		m.mode = modeBrowse
		m.pending = ""
		// The prompt was answered on screen
		return m, m.run(dashboard.ActionDeleteQuarantine, func(ctx context.Context) error {
			return m.ctrl.DeleteQuarantineItem(ctx, name, dashboard.AlwaysConfirm)
		})
	case "n", "esc":
		m.mode = modeBrowse
		m.pending = ""
	}
	return m, nil
}

func (m *Model) upload(ctx context.Context, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return m.ctrl.UploadFile(ctx, "", nil)
	}
	f, err := os.Open(path)
	if err != nil {
		m.notifyError(fmt.Sprintf("Erreur : %v", err))
		return err
	}
	defer f.Close()
	return m.ctrl.UploadFile(ctx, filepath.Base(path), f)
}

func (m *Model) notifyError(msg string) {
	if m.feed != nil {
		m.feed.Notify(notify.Notice{Kind: notify.KindToast, Level: notify.LevelError, Message: msg})
	}
}

// run executes fn off the UI goroutine
func (m *Model) run(action dashboard.Action, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		err := fn(ctx)
		if errors.Is(err, dashboard.ErrCancelled) {
			err = nil
		}
		return actionDoneMsg{action: action, err: err}
	}
}

func (m *Model) prompt(mode inputMode, placeholder string) tea.Cmd {
	m.mode = mode
	m.input.Reset()
	m.input.Placeholder = placeholder
	m.tables[m.state].Blur()
	return m.input.Focus()
}

func (m *Model) closePrompt() {
	m.mode = modeBrowse
	m.input.Blur()
	m.input.Reset()
	m.tables[m.state].Focus()
}

func (m *Model) focusNext() {
	m.tables[m.state].Blur()
	for i, s := range tableOrder {
		if s == m.state {
			m.state = tableOrder[(i+1)%len(tableOrder)]
			break
		}
	}
	m.tables[m.state].Focus()
}

// sync copies the screen into the tables when it changed
func (m *Model) sync() {
	f := m.screen.frame()
	m.last = f
	if f.version == m.version && m.version != 0 {
		return
	}
	m.version = f.version
	m.tables[HistoryTable].SetRows(f.history)
	m.tables[QuarantineTable].SetRows(f.quarantine)
	m.tables[RecentTable].SetRows(f.recentScans)
}

func (m *Model) View() string {
	return m.render()
}
