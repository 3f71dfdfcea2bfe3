package tui

import (
	"sync"

	"github.com/charmbracelet/bubbles/table"

	"github.com/raphcvrt/Anti-Virus/internal/models"
	"github.com/raphcvrt/Anti-Virus/internal/render"
)

// Screen is the terminal counterpart of the HTML page. Sync renders into it
// from any goroutine; the tea model copies it on every tick.
type Screen struct {
	mu          sync.RWMutex
	status      models.MonitorStatus
	stats       models.DashboardStats
	history     []table.Row
	quarantine  []table.Row
	recentScans []table.Row
	scanResult  string
	loading     bool
	version     uint64
}

// NewScreen returns a screen showing the empty dashboard
func NewScreen() *Screen {
	s := &Screen{}
	s.RenderScanHistory(nil)
	s.RenderQuarantine(nil)
	s.RenderRecentScans(nil)
	return s
}

func (s *Screen) RenderStatus(status models.MonitorStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.version++
}

func (s *Screen) RenderStats(stats models.DashboardStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
	s.version++
}

func (s *Screen) RenderScanHistory(entries []models.HistoryEntry) {
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, table.Row{e.Timestamp, e.FilePath, e.Status, e.Action})
	}
	if len(rows) == 0 {
		rows = append(rows, table.Row{"", render.PlaceholderHistory, "", ""})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = rows
	s.version++
}

func (s *Screen) RenderQuarantine(items []models.QuarantineItem) {
	rows := make([]table.Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, table.Row{item.Name, render.FormatSize(item.SizeBytes), item.QuarantinedAt})
	}
	if len(rows) == 0 {
		rows = append(rows, table.Row{render.PlaceholderQuarantine, "", ""})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.quarantine = rows
	s.version++
}

func (s *Screen) RenderRecentScans(records []models.ScanRecord) {
	rows := make([]table.Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, table.Row{r.FileName, r.Timestamp, r.PrimaryEngineResult, r.SecondaryEngineResult, string(r.Status)})
	}
	if len(rows) == 0 {
		rows = append(rows, table.Row{render.PlaceholderRecent, "", "", "", ""})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recentScans = rows
	s.version++
}

func (s *Screen) RenderScanResult(result models.ScanFileResult) {
	text := "Résultat de l'analyse: " + result.Status + " | Action: " + result.Action
	if result.Error != "" {
		text += " | Erreur: " + result.Error
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanResult = text
	s.version++
}

func (s *Screen) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
	s.version++
}

// frame is a copy of the screen taken under one lock
type frame struct {
	status      models.MonitorStatus
	stats       models.DashboardStats
	history     []table.Row
	quarantine  []table.Row
	recentScans []table.Row
	scanResult  string
	loading     bool
	version     uint64
}

func (s *Screen) frame() frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return frame{
		status:      s.status,
		stats:       s.stats,
		history:     append([]table.Row(nil), s.history...),
		quarantine:  append([]table.Row(nil), s.quarantine...),
		recentScans: append([]table.Row(nil), s.recentScans...),
		scanResult:  s.scanResult,
		loading:     s.loading,
		version:     s.version,
	}
}

// quarantineName returns the item name shown on row i, or "" for the placeholder
func (f frame) quarantineName(i int) string {
	if i < 0 || i >= len(f.quarantine) {
		return ""
	}
	name := f.quarantine[i][0]
	if name == render.PlaceholderQuarantine {
		return ""
	}
	return name
}
