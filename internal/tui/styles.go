package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/raphcvrt/Anti-Virus/internal/notify"
	"github.com/raphcvrt/Anti-Virus/internal/render"
)

const (
	green = "#A7C080"
	black = "#1E2326"
	grey  = "#384B55"
	white = "#F2EFDF"
	red   = "#E67E80"

	tableHeight = 12
)

var (
	HistoryColumns = []table.Column{
		{Title: "Date", Width: 20},
		{Title: "Fichier", Width: 40},
		{Title: "Statut", Width: 10},
		{Title: "Action", Width: 12},
	}

	QuarantineColumns = []table.Column{
		{Title: "Nom", Width: 40},
		{Title: "Taille", Width: 12},
		{Title: "Date", Width: 20},
	}

	RecentColumns = []table.Column{
		{Title: "Fichier", Width: 28},
		{Title: "Date", Width: 20},
		{Title: "Moteur 1", Width: 12},
		{Title: "Moteur 2", Width: 12},
		{Title: "Statut", Width: 10},
	}
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(green))

	activeBadge = lipgloss.NewStyle().
			Foreground(lipgloss.Color(black)).
			Background(lipgloss.Color(green)).
			Padding(0, 1)

	inactiveBadge = lipgloss.NewStyle().
			Foreground(lipgloss.Color(white)).
			Background(lipgloss.Color(red)).
			Padding(0, 1)

	statStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(grey)).
			Padding(0, 1)

	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(red))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(green))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(grey))
)

type TableBoxStyles struct {
	Active   lipgloss.Style
	Inactive lipgloss.Style
}

var DefaultBoxStyles = TableBoxStyles{
	Active: lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(green)),
	Inactive: lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(grey)),
}

func tableStyles(active bool) table.Styles {
	s := table.DefaultStyles()
	border, fg, bg := green, black, green
	if !active {
		border, fg, bg = grey, white, grey
	}
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(border)).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(fg)).
		Background(lipgloss.Color(bg)).
		Bold(true)
	return s
}

type keyMap struct {
	Tab       key.Binding
	Start     key.Binding
	Stop      key.Binding
	Scan      key.Binding
	Upload    key.Binding
	Delete    key.Binding
	Refresh   key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Tab:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "tableau suivant")),
		Start:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "surveiller")),
		Stop:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "arrêter")),
		Scan:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "analyser")),
		Upload:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "envoyer")),
		Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "supprimer")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rafraîchir")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quitter")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Start, k.Stop, k.Scan, k.Upload, k.Delete, k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func (m *Model) render() string {
	f := m.last
	var b strings.Builder

	badge := inactiveBadge.Render(render.StatusLabel(f.status))
	if f.status.Running {
		badge = activeBadge.Render(render.StatusLabel(f.status))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("Antivirus "), badge, "  ", render.WatchedFolderText(f.status)))
	b.WriteString("\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		statStyle.Render("Fichiers analysés\n"+render.FormatCount(f.stats.FilesScanned)),
		statStyle.Render("Menaces détectées\n"+render.FormatCount(f.stats.ThreatsDetected)),
		statStyle.Render("Dossiers surveillés\n"+render.FormatCount(f.stats.WatchedFolders)),
		statStyle.Render("Taux de protection\n"+render.FormatPercent(f.stats.ProtectionRate)),
	))
	b.WriteString("\n")

	var boxes []string
	for _, state := range tableOrder {
		active := state == m.state
		t := m.tables[state]
		t.SetStyles(tableStyles(active))
		box := DefaultBoxStyles.Inactive
		if active {
			box = DefaultBoxStyles.Active
		}
		boxes = append(boxes, box.Render(t.View()))
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, boxes...))
	b.WriteString("\n")

	if f.scanResult != "" {
		b.WriteString(f.scanResult + "\n")
	}
	if f.loading {
		b.WriteString(mutedStyle.Render("Analyse en cours...") + "\n")
	}
	if m.feed != nil {
		if n, ok := m.feed.Latest(); ok {
			style := successStyle
			if n.Level == notify.LevelError {
				style = errorStyle
			}
			b.WriteString(style.Render(n.Message) + "\n")
		}
	}

	switch m.mode {
	case modeFolderPrompt, modeFilePrompt, modeUploadPrompt:
		b.WriteString(m.input.View() + "\n")
	case modeConfirmDelete:
		b.WriteString(errorStyle.Render(render.DeletePrompt(m.pending)+" (y/n)") + "\n")
	default:
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}
