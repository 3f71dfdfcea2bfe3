package client

import (
	"bytes"
	"encoding/json"

	"github.com/raphcvrt/Anti-Virus/internal/models"
)

// Wire shapes, one per endpoint. Field-name variants are resolved here and
// nowhere else.

type statusResponse struct {
	Status        string `json:"status"`
	WatchedFolder string `json:"watched_folder"`
}

func adaptStatus(p statusResponse) models.MonitorStatus {
	return models.MonitorStatus{
		Running:       p.Status == "running",
		WatchedFolder: p.WatchedFolder,
	}
}

type historyResponse struct {
	Timestamp string `json:"timestamp"`
	Filepath  string `json:"filepath"`
	Status    string `json:"status"`
	Action    string `json:"action"`
	Error     string `json:"error"`
}

func adaptHistory(ps []historyResponse) []models.HistoryEntry {
	entries := make([]models.HistoryEntry, 0, len(ps))
	for _, p := range ps {
		entries = append(entries, models.HistoryEntry{
			Timestamp: p.Timestamp,
			FilePath:  p.Filepath,
			Status:    p.Status,
			Action:    p.Action,
			Error:     p.Error,
		})
	}
	return entries
}

type quarantineResponse struct {
	Name            string `json:"name"`
	Size            int64  `json:"size"`
	QuarantinedDate string `json:"quarantined_date"`
}

func adaptQuarantine(ps []quarantineResponse) []models.QuarantineItem {
	items := make([]models.QuarantineItem, 0, len(ps))
	for _, p := range ps {
		items = append(items, models.QuarantineItem{
			Name:          p.Name,
			SizeBytes:     p.Size,
			QuarantinedAt: p.QuarantinedDate,
		})
	}
	return items
}

// recentScanResponse accepts both the snake_case and camelCase payloads
// served by the two backend generations.
type recentScanResponse struct {
	ID                  flexString `json:"id"`
	FileName            string     `json:"file_name"`
	FileNameCamel       string     `json:"fileName"`
	Date                string     `json:"date"`
	ClamAVResult        string     `json:"clamav_result"`
	ClamAVResultCamel   string     `json:"clamAVResult"`
	VirusTotalResult    string     `json:"virustotal_result"`
	VirusTotalResultCam string     `json:"virusTotalResult"`
	Status              string     `json:"status"`
}

func adaptRecentScans(ps []recentScanResponse) []models.ScanRecord {
	records := make([]models.ScanRecord, 0, len(ps))
	for _, p := range ps {
		records = append(records, models.ScanRecord{
			ID:                    string(p.ID),
			FileName:              firstString(p.FileName, p.FileNameCamel),
			Timestamp:             p.Date,
			PrimaryEngineResult:   firstString(p.ClamAVResult, p.ClamAVResultCamel),
			SecondaryEngineResult: firstString(p.VirusTotalResult, p.VirusTotalResultCam),
			Status:                models.ParseScanStatus(p.Status),
		})
	}
	return records
}

type statsResponse struct {
	FilesScanned         *float64 `json:"files_scanned"`
	FilesScannedCamel    *float64 `json:"filesScanned"`
	ThreatsDetected      *float64 `json:"threats_detected"`
	ThreatsDetectedCamel *float64 `json:"threatsDetected"`
	WatchedFolders       *float64 `json:"watched_folders"`
	WatchedFoldersCamel  *float64 `json:"watchedFolders"`
	ProtectionRate       *float64 `json:"protection_rate"`
	ProtectionRateCamel  *float64 `json:"protectionRate"`
}

func adaptStats(p statsResponse) models.DashboardStats {
	rate := firstNumber(p.ProtectionRate, p.ProtectionRateCamel)
	switch {
	case rate < 0:
		rate = 0
	case rate > 100:
		rate = 100
	}

	return models.DashboardStats{
		FilesScanned:    int64(firstNumber(p.FilesScanned, p.FilesScannedCamel)),
		ThreatsDetected: int64(firstNumber(p.ThreatsDetected, p.ThreatsDetectedCamel)),
		WatchedFolders:  int64(firstNumber(p.WatchedFolders, p.WatchedFoldersCamel)),
		ProtectionRate:  rate,
	}
}

type commandResponse struct {
	Success *bool               `json:"success"`
	Message string              `json:"message"`
	Result  *scanResultResponse `json:"result"`
}

type scanResultResponse struct {
	Timestamp string `json:"timestamp"`
	Filepath  string `json:"filepath"`
	Status    string `json:"status"`
	Action    string `json:"action"`
	Error     string `json:"error"`
}

func adaptScanResult(p *scanResultResponse) models.ScanFileResult {
	if p == nil {
		return models.ScanFileResult{}
	}
	return models.ScanFileResult{
		FilePath: p.Filepath,
		Status:   p.Status,
		Action:   p.Action,
		Error:    p.Error,
	}
}

type uploadResponse struct {
	Filename string `json:"filename"`
	Result   string `json:"result"`
	Error    string `json:"error"`
}

// errorResponse covers the error bodies of both backend generations
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func errorMessage(body []byte, fallback string) string {
	var p errorResponse
	if err := json.Unmarshal(body, &p); err == nil {
		if p.Message != "" {
			return p.Message
		}
		if p.Error != "" {
			return p.Error
		}
	}
	return fallback
}

// flexString decodes a JSON string or number into a string
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNumber(values ...*float64) float64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}
