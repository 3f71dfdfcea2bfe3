package render

import (
	"bytes"
	"html/template"
	"sync"

	"github.com/raphcvrt/Anti-Virus/internal/models"
)

// Element ids of the dashboard page
const (
	IDMonitorStatus  = "monitor-status"
	IDStatusBadge    = "status-badge"
	IDWatchedFolder  = "watched-folder"
	IDFilesScanned   = "files-scanned"
	IDThreats        = "threats-detected"
	IDWatchedFolders = "watched-folders"
	IDProtection     = "protection-rate"
	IDHistoryTable   = "scan-history-table-body"
	IDQuarantine     = "quarantine-table-body"
	IDRecentScans    = "recent-scans"
	IDScanResult     = "scan-result"
)

// Page is the element tree of the HTML dashboard. Each render call
// rewrites the elements it owns; tables are cleared then rebuilt.
type Page struct {
	mu      sync.RWMutex
	text    map[string]string
	class   map[string]string
	rows    map[string][]template.HTML
	html    map[string]template.HTML
	loading bool
}

// NewPage returns a page showing the empty dashboard
func NewPage() *Page {
	p := &Page{
		text:  make(map[string]string),
		class: make(map[string]string),
		rows:  make(map[string][]template.HTML),
		html:  make(map[string]template.HTML),
	}
	p.RenderStatus(models.MonitorStatus{})
	p.RenderStats(models.DashboardStats{})
	p.RenderScanHistory(nil)
	p.RenderQuarantine(nil)
	p.RenderRecentScans(nil)
	return p
}

// RenderStatus shows the monitor status badge and watched folder
func (p *Page) RenderStatus(s models.MonitorStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	label := StatusLabel(s)
	p.text[IDMonitorStatus] = label
	p.text[IDStatusBadge] = label
	p.class[IDStatusBadge] = StatusBadgeClass(s)
	p.text[IDWatchedFolder] = WatchedFolderText(s)
}

// RenderStats shows the counters
func (p *Page) RenderStats(s models.DashboardStats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.text[IDFilesScanned] = FormatCount(s.FilesScanned)
	p.text[IDThreats] = FormatCount(s.ThreatsDetected)
	p.text[IDWatchedFolders] = FormatCount(s.WatchedFolders)
	p.text[IDProtection] = FormatPercent(s.ProtectionRate)
}

// RenderScanHistory rebuilds the scan history table
func (p *Page) RenderScanHistory(entries []models.HistoryEntry) {
	rows := make([]template.HTML, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, executeRow("history", e))
	}
	p.replaceRows(IDHistoryTable, rows, placeholderRow(4, PlaceholderHistory))
}

// RenderQuarantine rebuilds the quarantine table
func (p *Page) RenderQuarantine(items []models.QuarantineItem) {
	rows := make([]template.HTML, 0, len(items))
	for _, item := range items {
		rows = append(rows, executeRow("quarantine", item))
	}
	p.replaceRows(IDQuarantine, rows, placeholderRow(4, PlaceholderQuarantine))
}

// RenderRecentScans rebuilds the recent scans table
func (p *Page) RenderRecentScans(records []models.ScanRecord) {
	rows := make([]template.HTML, 0, len(records))
	for _, r := range records {
		rows = append(rows, executeRow("recent", r))
	}
	p.replaceRows(IDRecentScans, rows, placeholderRow(6, PlaceholderRecent))
}

// RenderScanResult shows the inline result of an on-demand scan
func (p *Page) RenderScanResult(result models.ScanFileResult) {
	fragment := executeRow("scan-result", result)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.html[IDScanResult] = fragment
}

// SetLoading toggles the upload loader
func (p *Page) SetLoading(loading bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = loading
}

func (p *Page) replaceRows(id string, rows []template.HTML, placeholder template.HTML) {
	if len(rows) == 0 {
		rows = []template.HTML{placeholder}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows[id] = rows
}

// Text returns the text content of an element
func (p *Page) Text(id string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.text[id]
}

// Class returns the class attribute of an element
func (p *Page) Class(id string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.class[id]
}

// Rows returns a copy of the rows of a table body
func (p *Page) Rows(id string) []template.HTML {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rows := make([]template.HTML, len(p.rows[id]))
	copy(rows, p.rows[id])
	return rows
}

// HTML returns the inner HTML of an element
func (p *Page) HTML(id string) template.HTML {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.html[id]
}

// Loading reports whether the upload loader is shown
func (p *Page) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading
}

// View is a consistent copy of the page for templates
type View struct {
	Text    map[string]string
	Class   map[string]string
	Rows    map[string][]template.HTML
	HTML    map[string]template.HTML
	Loading bool
}

// View copies the page under a single lock
func (p *Page) View() View {
	p.mu.RLock()
	defer p.mu.RUnlock()

	v := View{
		Text:    make(map[string]string, len(p.text)),
		Class:   make(map[string]string, len(p.class)),
		Rows:    make(map[string][]template.HTML, len(p.rows)),
		HTML:    make(map[string]template.HTML, len(p.html)),
		Loading: p.loading,
	}
	for k, val := range p.text {
		v.Text[k] = val
	}
	for k, val := range p.class {
		v.Class[k] = val
	}
	for k, val := range p.rows {
		v.Rows[k] = append([]template.HTML(nil), val...)
	}
	for k, val := range p.html {
		v.HTML[k] = val
	}
	return v
}

func placeholderRow(colspan int, message string) template.HTML {
	return executeRow("placeholder", struct {
		Colspan int
		Message string
	}{colspan, message})
}

func executeRow(name string, data any) template.HTML {
	var buf bytes.Buffer
	if err := rowTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		// Row templates are static; a failure here is a programming error
		panic(err)
	}
	return template.HTML(buf.String())
}
