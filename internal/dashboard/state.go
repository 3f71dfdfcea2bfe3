package dashboard

import (
	"sync"
	"time"

	"github.com/raphcvrt/Anti-Virus/internal/models"
)

// State is the cached copy of the backend state. Each collection is only
// replaced by its own refresh; readers get copies.
type State struct {
	mu          sync.RWMutex
	status      models.MonitorStatus
	stats       models.DashboardStats
	history     []models.HistoryEntry
	quarantine  []models.QuarantineItem
	recentScans []models.ScanRecord
	lastScan    *models.ScanFileResult
	updatedAt   map[string]time.Time
}

func newState() *State {
	return &State{
		history:     []models.HistoryEntry{},
		quarantine:  []models.QuarantineItem{},
		recentScans: []models.ScanRecord{},
		updatedAt:   make(map[string]time.Time),
	}
}

// Snapshot is a point-in-time copy of State
type Snapshot struct {
	Status      models.MonitorStatus    `json:"status"`
	Stats       models.DashboardStats   `json:"stats"`
	ScanHistory []models.HistoryEntry   `json:"scanHistory"`
	Quarantine  []models.QuarantineItem `json:"quarantine"`
	RecentScans []models.ScanRecord     `json:"recentScans"`
	LastScan    *models.ScanFileResult  `json:"lastScan,omitempty"`
	UpdatedAt   map[string]time.Time    `json:"updatedAt"`
}

func (st *State) snapshot() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()

	snap := Snapshot{
		Status:      st.status,
		Stats:       st.stats,
		ScanHistory: append([]models.HistoryEntry{}, st.history...),
		Quarantine:  append([]models.QuarantineItem{}, st.quarantine...),
		RecentScans: append([]models.ScanRecord{}, st.recentScans...),
		UpdatedAt:   make(map[string]time.Time, len(st.updatedAt)),
	}
	if st.lastScan != nil {
		last := *st.lastScan
		snap.LastScan = &last
	}
	for k, v := range st.updatedAt {
		snap.UpdatedAt[k] = v
	}
	return snap
}

// update runs fn with the state locked and stamps collection. Renders happen
// inside fn so the view never lags behind a newer cache write.
func (st *State) update(collection string, fn func(st *State)) {
	st.mu.Lock()
	defer st.mu.Unlock()

	fn(st)
	st.updatedAt[collection] = time.Now()
}

func removeQuarantineItem(items []models.QuarantineItem, name string) ([]models.QuarantineItem, bool) {
	kept := make([]models.QuarantineItem, 0, len(items))
	removed := false
	for _, item := range items {
		if item.Name == name {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	return kept, removed
}
