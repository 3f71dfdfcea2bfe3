// Package dashboard keeps a local copy of the antivirus backend state in sync
// with a view. Refreshes are driven by the scheduler, user actions go through
// the subscription table in actions.go.
package dashboard

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/raphcvrt/Anti-Virus/internal/config"
	"github.com/raphcvrt/Anti-Virus/internal/metrics"
	"github.com/raphcvrt/Anti-Virus/internal/models"
	"github.com/raphcvrt/Anti-Virus/internal/notify"
	"github.com/raphcvrt/Anti-Virus/internal/scheduler"
	"github.com/raphcvrt/Anti-Virus/internal/settings"
)

// Collection names, used for scheduling, metrics and freshness stamps
const (
	CollectionStatus      = "status"
	CollectionStats       = "stats"
	CollectionScanHistory = "scan-history"
	CollectionQuarantine  = "quarantine"
	CollectionRecentScans = "recent-scans"
	CollectionLastScan    = "last-scan"
)

// Backend is the REST API of the scanning service
type Backend interface {
	Status(ctx context.Context) (models.MonitorStatus, error)
	Stats(ctx context.Context) (models.DashboardStats, error)
	ScanHistory(ctx context.Context) ([]models.HistoryEntry, error)
	QuarantineItems(ctx context.Context) ([]models.QuarantineItem, error)
	RecentScans(ctx context.Context) ([]models.ScanRecord, error)
	StartMonitoring(ctx context.Context, folder string) (string, error)
	StopMonitoring(ctx context.Context) (string, error)
	ScanFile(ctx context.Context, path string) (models.ScanFileResult, error)
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
	DeleteQuarantineItem(ctx context.Context, name string) error
}

// Renderer draws the cached state. Every call receives the whole collection
// and must rebuild its region from scratch.
type Renderer interface {
	RenderStatus(models.MonitorStatus)
	RenderStats(models.DashboardStats)
	RenderScanHistory([]models.HistoryEntry)
	RenderQuarantine([]models.QuarantineItem)
	RenderRecentScans([]models.ScanRecord)
	RenderScanResult(models.ScanFileResult)
	SetLoading(bool)
}

// SettingsStore persists the user preferences
type SettingsStore interface {
	Get() settings.Settings
	Save(settings.Settings) error
}

// Alerter delivers out-of-band alerts such as the Discord webhook
type Alerter interface {
	Send(ctx context.Context, content string) error
}

// Options configures a Sync. Every field is optional.
type Options struct {
	Renderer     Renderer
	Notifier     notify.Notifier
	Settings     SettingsStore
	Alerter      Alerter
	Metrics      *metrics.Recorder
	Logger       *zap.Logger
	DegradedMode config.DegradedMode
}

// Sync owns the dashboard state and the view bound to it
type Sync struct {
	backend  Backend
	state    *State
	view     Renderer
	notifier notify.Notifier
	settings SettingsStore
	alerter  Alerter
	metrics  *metrics.Recorder
	log      *zap.Logger
	degraded config.DegradedMode

	uploading atomic.Bool
	handlers  map[Action]ActionHandler
}

// New binds backend to the view in opts
func New(backend Backend, opts Options) *Sync {
	s := &Sync{
		backend:  backend,
		state:    newState(),
		view:     opts.Renderer,
		notifier: opts.Notifier,
		settings: opts.Settings,
		alerter:  opts.Alerter,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		degraded: opts.DegradedMode,
	}
	if s.view == nil {
		s.view = nopRenderer{}
	}
	if s.notifier == nil {
		s.notifier = notify.Func(func(notify.Notice) {})
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.degraded == "" {
		s.degraded = config.DegradedKeep
	}
	s.handlers = s.defaultHandlers()
	return s
}

// RefreshStatus fetches the monitoring status
func (s *Sync) RefreshStatus(ctx context.Context) error {
	status, err := s.backend.Status(ctx)
	s.observeRefresh(CollectionStatus, err)
	if err != nil {
		return err
	}

	s.state.update(CollectionStatus, func(st *State) {
		st.status = status
		s.view.RenderStatus(status)
	})
	return nil
}

// RefreshStats fetches the counters. On failure the degraded mode decides
// whether the last values stay on screen.
func (s *Sync) RefreshStats(ctx context.Context) error {
	stats, err := s.backend.Stats(ctx)
	s.observeRefresh(CollectionStats, err)
	if err != nil {
		if s.degraded == config.DegradedReset {
			s.state.update(CollectionStats, func(st *State) {
				st.stats = models.DashboardStats{}
				s.view.RenderStats(st.stats)
			})
		}
		return err
	}

	s.state.update(CollectionStats, func(st *State) {
		st.stats = stats
		s.view.RenderStats(stats)
	})
	return nil
}

// RefreshScanHistory replaces the scan history
func (s *Sync) RefreshScanHistory(ctx context.Context) error {
	entries, err := s.backend.ScanHistory(ctx)
	s.observeRefresh(CollectionScanHistory, err)
	if err != nil {
		return err
	}

	s.state.update(CollectionScanHistory, func(st *State) {
		st.history = orEmpty(entries)
		s.view.RenderScanHistory(st.history)
	})
	return nil
}

// RefreshQuarantine replaces the quarantine listing
func (s *Sync) RefreshQuarantine(ctx context.Context) error {
	items, err := s.backend.QuarantineItems(ctx)
	s.observeRefresh(CollectionQuarantine, err)
	if err != nil {
		return err
	}

	s.state.update(CollectionQuarantine, func(st *State) {
		st.quarantine = orEmpty(items)
		s.view.RenderQuarantine(st.quarantine)
	})
	return nil
}

// RefreshRecentScans replaces the recent scans table
func (s *Sync) RefreshRecentScans(ctx context.Context) error {
	scans, err := s.backend.RecentScans(ctx)
	s.observeRefresh(CollectionRecentScans, err)
	if err != nil {
		return err
	}

	s.state.update(CollectionRecentScans, func(st *State) {
		st.recentScans = orEmpty(scans)
		s.view.RenderRecentScans(st.recentScans)
	})
	return nil
}

// RefreshAll loads every collection concurrently. A failing refresh does not
// cancel the others; the first error is returned.
func (s *Sync) RefreshAll(ctx context.Context) error {
	var g errgroup.Group
	for _, refresh := range []func(context.Context) error{
		s.RefreshStatus,
		s.RefreshStats,
		s.RefreshScanHistory,
		s.RefreshQuarantine,
		s.RefreshRecentScans,
	} {
		g.Go(func() error { return refresh(ctx) })
	}
	return g.Wait()
}

// Snapshot returns a copy of the cached state
func (s *Sync) Snapshot() Snapshot {
	return s.state.snapshot()
}

// Schedule registers one polling job per collection with a non-zero interval
func (s *Sync) Schedule(sched scheduler.Scheduler, intervals config.Intervals) error {
	jobs := []struct {
		name     string
		interval time.Duration
		refresh  scheduler.JobFunc
	}{
		{CollectionStatus, intervals.Status, s.RefreshStatus},
		{CollectionScanHistory, intervals.ScanHistory, s.RefreshScanHistory},
		{CollectionQuarantine, intervals.Quarantine, s.RefreshQuarantine},
		{CollectionStats, intervals.Stats, s.RefreshStats},
		{CollectionRecentScans, intervals.RecentScans, s.RefreshRecentScans},
	}

	for _, job := range jobs {
		if job.interval <= 0 {
			s.log.Debug("polling disabled", zap.String("collection", job.name))
			continue
		}
		schedule := scheduler.EverySchedule(job.interval)
		if err := sched.ScheduleFunc(job.name, schedule, job.refresh); err != nil {
			return err
		}
		s.log.Info("polling scheduled",
			zap.String("collection", job.name),
			zap.String("schedule", schedule))
	}
	return nil
}

func (s *Sync) observeRefresh(collection string, err error) {
	s.metrics.ObserveRefresh(collection, err)
	if err != nil {
		s.log.Warn("refresh failed",
			zap.String("collection", collection),
			zap.Error(err))
	}
}

func (s *Sync) notice(kind notify.Kind, level notify.Level, message string) {
	s.notifier.Notify(notify.Notice{Kind: kind, Level: level, Message: message})
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

type nopRenderer struct{}

func (nopRenderer) RenderStatus(models.MonitorStatus)        {}
func (nopRenderer) RenderStats(models.DashboardStats)        {}
func (nopRenderer) RenderScanHistory([]models.HistoryEntry)  {}
func (nopRenderer) RenderQuarantine([]models.QuarantineItem) {}
func (nopRenderer) RenderRecentScans([]models.ScanRecord)    {}
func (nopRenderer) RenderScanResult(models.ScanFileResult)   {}
func (nopRenderer) SetLoading(bool)                          {}
