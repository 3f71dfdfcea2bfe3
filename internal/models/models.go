package models

import "strings"

// ScanStatus is the normalized outcome of a scan
type ScanStatus string

const (
	StatusClean    ScanStatus = "Clean"
	StatusInfected ScanStatus = "Infected"
	StatusError    ScanStatus = "Error"
)

// ParseScanStatus maps the backend's status strings onto ScanStatus.
// Anything that is neither clean nor infected is treated as an error.
func ParseScanStatus(raw string) ScanStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "clean":
		return StatusClean
	case "infected":
		return StatusInfected
	default:
		return StatusError
	}
}

// ScanRecord is one row of the recent scans table
type ScanRecord struct {
	ID                    string     `json:"id"`
	FileName              string     `json:"fileName"`
	Timestamp             string     `json:"timestamp"`
	PrimaryEngineResult   string     `json:"primaryEngineResult"`
	SecondaryEngineResult string     `json:"secondaryEngineResult"`
	Status                ScanStatus `json:"status"`
}

// HistoryEntry is one row of the scan history table.
// Status keeps the backend's raw value, it is displayed verbatim.
type HistoryEntry struct {
	Timestamp string `json:"timestamp"`
	FilePath  string `json:"filePath"`
	Status    string `json:"status"`
	Action    string `json:"action"`
	Error     string `json:"error,omitempty"`
}

// QuarantineItem is a file held in quarantine, keyed by Name
type QuarantineItem struct {
	Name          string `json:"name"`
	SizeBytes     int64  `json:"sizeBytes"`
	QuarantinedAt string `json:"quarantinedAt"`
}

// DashboardStats are the aggregated counters computed by the backend
type DashboardStats struct {
	FilesScanned    int64   `json:"filesScanned"`
	ThreatsDetected int64   `json:"threatsDetected"`
	WatchedFolders  int64   `json:"watchedFolders"`
	ProtectionRate  float64 `json:"protectionRate"` // percentage, 0-100
}

// MonitorStatus reflects the backend's single folder monitor
type MonitorStatus struct {
	Running       bool   `json:"running"`
	WatchedFolder string `json:"watchedFolder,omitempty"`
}

// ScanFileResult is the inline result of an on-demand scan
type ScanFileResult struct {
	FilePath string `json:"filePath,omitempty"`
	Status   string `json:"status"`
	Action   string `json:"action"`
	Error    string `json:"error,omitempty"`
}

// Infected reports whether the scan flagged the file
func (r ScanFileResult) Infected() bool {
	return ParseScanStatus(r.Status) == StatusInfected
}
