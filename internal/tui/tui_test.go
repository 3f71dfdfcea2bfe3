package tui

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphcvrt/Anti-Virus/internal/dashboard"
	"github.com/raphcvrt/Anti-Virus/internal/models"
	"github.com/raphcvrt/Anti-Virus/internal/notify"
	"github.com/raphcvrt/Anti-Virus/internal/render"
)

type call struct {
	op  string
	arg string
}

type fakeController struct {
	mu    sync.Mutex
	calls []call
}

func (c *fakeController) record(op, arg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call{op, arg})
}

func (c *fakeController) StartMonitoring(ctx context.Context, folder string) error {
	c.record("start", folder)
	return nil
}

func (c *fakeController) StopMonitoring(ctx context.Context) error {
	c.record("stop", "")
	return nil
}

func (c *fakeController) ScanFile(ctx context.Context, path string) error {
	c.record("scan", path)
	return nil
}

func (c *fakeController) UploadFile(ctx context.Context, name string, r io.Reader) error {
	data, _ := io.ReadAll(r)
	c.record("upload", name+":"+string(data))
	return nil
}

func (c *fakeController) DeleteQuarantineItem(ctx context.Context, name string, confirm dashboard.Confirmer) error {
	if !confirm.Confirm(render.DeletePrompt(name)) {
		return dashboard.ErrCancelled
	}
	c.record("delete", name)
	return nil
}

func (c *fakeController) RefreshAll(ctx context.Context) error {
	c.record("refresh", "")
	return nil
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// exec runs the command returned by Update and feeds its message back
func exec(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	done, ok := msg.(actionDoneMsg)
	require.True(t, ok, "expected an action result, got %T", msg)
	m.Update(done)
}

func newTestModel() (*Model, *fakeController, *Screen) {
	ctrl := &fakeController{}
	screen := NewScreen()
	return New(context.Background(), ctrl, screen, notify.NewFeed()), ctrl, screen
}

func TestScreenPlaceholders(t *testing.T) {
	f := NewScreen().frame()
	require.Len(t, f.history, 1)
	assert.Equal(t, render.PlaceholderHistory, f.history[0][1])
	require.Len(t, f.quarantine, 1)
	assert.Equal(t, "", f.quarantineName(0))
	require.Len(t, f.recentScans, 1)
}

func TestScreenRendersQuarantineSize(t *testing.T) {
	s := NewScreen()
	s.RenderQuarantine([]models.QuarantineItem{{Name: "a.exe", SizeBytes: 2048, QuarantinedAt: "2025-01-01"}})

	f := s.frame()
	require.Len(t, f.quarantine, 1)
	assert.Equal(t, "2.00 KB", f.quarantine[0][1])
	assert.Equal(t, "a.exe", f.quarantineName(0))
}

func TestViewShowsStatusAndStats(t *testing.T) {
	m, _, screen := newTestModel()
	screen.RenderStatus(models.MonitorStatus{Running: true, WatchedFolder: "/srv/in"})
	screen.RenderStats(models.DashboardStats{FilesScanned: 42, ProtectionRate: 93})
	m.Update(tickMsg{})

	view := m.View()
	assert.Contains(t, view, "Actif")
	assert.Contains(t, view, "Dossier surveillé: /srv/in")
	assert.Contains(t, view, "42")
	assert.Contains(t, view, "93%")
}

func TestStartMonitoringPrompt(t *testing.T) {
	m, ctrl, _ := newTestModel()

	m.Update(keyPress("m"))
	assert.Equal(t, modeFolderPrompt, m.mode)
	typeText(m, "/data")
	_, cmd := m.Update(keyPress("enter"))
	assert.Equal(t, modeBrowse, m.mode)
	exec(t, m, cmd)

	assert.Equal(t, []call{{"start", "/data"}}, ctrl.calls)
}

func TestEscCancelsPrompt(t *testing.T) {
	m, ctrl, _ := newTestModel()

	m.Update(keyPress("f"))
	typeText(m, "/tmp/x")
	_, cmd := m.Update(keyPress("esc"))
	assert.Nil(t, cmd)
	assert.Equal(t, modeBrowse, m.mode)
	assert.Empty(t, ctrl.calls)
}

func TestStopAndRefreshKeys(t *testing.T) {
	m, ctrl, _ := newTestModel()

	_, cmd := m.Update(keyPress("s"))
	exec(t, m, cmd)
	_, cmd = m.Update(keyPress("r"))
	exec(t, m, cmd)

	assert.Equal(t, []call{{"stop", ""}, {"refresh", ""}}, ctrl.calls)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	m, ctrl, screen := newTestModel()
	screen.RenderQuarantine([]models.QuarantineItem{{Name: "a.exe", SizeBytes: 10}})
	m.Update(tickMsg{})

	m.Update(keyPress("d"))
	assert.Equal(t, modeBrowse, m.mode, "delete only works on the quarantine table")

	m.Update(keyPress("tab"))
	assert.Equal(t, QuarantineTable, m.state)

	m.Update(keyPress("d"))
	require.Equal(t, modeConfirmDelete, m.mode)
	assert.Contains(t, m.View(), "Êtes-vous sûr de vouloir supprimer a.exe de la quarantaine ?")

	_, cmd := m.Update(keyPress("n"))
	assert.Nil(t, cmd)
	assert.Empty(t, ctrl.calls)

	m.Update(keyPress("d"))
	_, cmd = m.Update(keyPress("y"))
	exec(t, m, cmd)
	assert.Equal(t, []call{{"delete", "a.exe"}}, ctrl.calls)
}

func TestDeleteIgnoresPlaceholder(t *testing.T) {
	m, _, _ := newTestModel()
	m.Update(keyPress("tab"))
	m.Update(keyPress("d"))
	assert.Equal(t, modeBrowse, m.mode)
}

func TestUploadReadsLocalFile(t *testing.T) {
	m, ctrl, _ := newTestModel()
	path := filepath.Join(t.TempDir(), "sample.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	m.Update(keyPress("u"))
	typeText(m, path)
	_, cmd := m.Update(keyPress("enter"))
	exec(t, m, cmd)

	assert.Equal(t, []call{{"upload", "sample.txt:hello"}}, ctrl.calls)
}

func TestQuitKey(t *testing.T) {
	m, _, _ := newTestModel()
	_, cmd := m.Update(keyPress("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
