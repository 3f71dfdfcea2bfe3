package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/raphcvrt/Anti-Virus/internal/models"
)

// Status labels
const (
	LabelRunning = "Actif"
	LabelStopped = "Inactif"
)

// DeletePrompt is the confirmation shown before removing a quarantine item
func DeletePrompt(name string) string {
	return fmt.Sprintf("Êtes-vous sûr de vouloir supprimer %s de la quarantaine ?", name)
}

// Placeholder rows for empty tables
const (
	PlaceholderHistory    = "Aucune analyse effectuée"
	PlaceholderRecent     = "Aucune analyse récente"
	PlaceholderQuarantine = "Aucun fichier en quarantaine"
)

// StatusLabel is the monitor status text
func StatusLabel(s models.MonitorStatus) string {
	if s.Running {
		return LabelRunning
	}
	return LabelStopped
}

// StatusBadgeClass styles the monitor badge: success when running, danger otherwise
func StatusBadgeClass(s models.MonitorStatus) string {
	if s.Running {
		return "badge rounded-pill float-end bg-success"
	}
	return "badge rounded-pill float-end bg-danger"
}

// WatchedFolderText describes the watched folder
func WatchedFolderText(s models.MonitorStatus) string {
	folder := s.WatchedFolder
	if folder == "" {
		folder = "Aucun"
	}
	return "Dossier surveillé: " + folder
}

// FormatSize renders a byte count in kilobytes with two decimals
func FormatSize(sizeBytes int64) string {
	return fmt.Sprintf("%.2f KB", float64(sizeBytes)/1024)
}

// FormatCount renders a counter
func FormatCount(n int64) string {
	return strconv.FormatInt(n, 10)
}

// FormatPercent renders a protection rate, dropping a zero fraction
func FormatPercent(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64) + "%"
}

// HistoryStatusClass styles a scan history status cell
func HistoryStatusClass(status string) string {
	switch status {
	case "infected":
		return "status-infected"
	case "clean":
		return "status-clean"
	default:
		return "status-error"
	}
}

// RecentScanBadgeClass styles a recent scan status badge
func RecentScanBadgeClass(status models.ScanStatus) string {
	if status == models.StatusClean {
		return "status-badge status-clean"
	}
	return "status-badge status-infected"
}

// ScanResultAlertClass styles the inline scan result
func ScanResultAlertClass(status string) string {
	switch status {
	case "infected":
		return "alert alert-danger"
	case "clean":
		return "alert alert-success"
	default:
		return "alert alert-warning"
	}
}

var (
	frenchDays   = []string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}
	frenchMonths = []string{"janvier", "février", "mars", "avril", "mai", "juin", "juillet",
		"août", "septembre", "octobre", "novembre", "décembre"}
)

// FrenchDate formats t like "samedi 18 octobre 2025"
func FrenchDate(t time.Time) string {
	return strings.Join([]string{
		frenchDays[t.Weekday()],
		strconv.Itoa(t.Day()),
		frenchMonths[t.Month()-1],
		strconv.Itoa(t.Year()),
	}, " ")
}
