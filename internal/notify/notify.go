package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Kind distinguishes blocking alerts from transient toasts
type Kind string

const (
	KindAlert Kind = "alert"
	KindToast Kind = "toast"
)

// Level is the severity shown to the user
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// DisplayWindow is how long a notice stays visible
const DisplayWindow = 5 * time.Second

// Notice is a message for the user
type Notice struct {
	Kind    Kind      `json:"kind"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier receives user-facing notices
type Notifier interface {
	Notify(n Notice)
}

// Func adapts a function to Notifier
type Func func(Notice)

func (f Func) Notify(n Notice) { f(n) }

// Multi fans a notice out to several notifiers
type Multi []Notifier

func (m Multi) Notify(n Notice) {
	for _, target := range m {
		if target != nil {
			target.Notify(n)
		}
	}
}

// Logger writes notices to the diagnostic log
type Logger struct {
	Log *zap.Logger
}

func (l Logger) Notify(n Notice) {
	fields := []zap.Field{zap.String("kind", string(n.Kind)), zap.String("message", n.Message)}
	if n.Level == LevelError {
		l.Log.Warn("user notice", fields...)
		return
	}
	l.Log.Info("user notice", fields...)
}

// Feed keeps recent notices for views that redraw on their own schedule
type Feed struct {
	mu      sync.Mutex
	notices []Notice
	window  time.Duration
	now     func() time.Time
}

// NewFeed creates a feed that shows notices for DisplayWindow
func NewFeed() *Feed {
	return &Feed{window: DisplayWindow, now: time.Now}
}

// Notify records n, stamping it when needed
func (f *Feed) Notify(n Notice) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if n.At.IsZero() {
		n.At = f.now()
	}
	f.notices = append(f.notices, n)
	f.pruneLocked()
}

// Active returns the notices still inside the display window, oldest first
func (f *Feed) Active() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pruneLocked()
	active := make([]Notice, len(f.notices))
	copy(active, f.notices)
	return active
}

// Latest returns the newest active notice
func (f *Feed) Latest() (Notice, bool) {
	active := f.Active()
	if len(active) == 0 {
		return Notice{}, false
	}
	return active[len(active)-1], true
}

func (f *Feed) pruneLocked() {
	cutoff := f.now().Add(-f.window)
	kept := f.notices[:0]
	for _, n := range f.notices {
		if n.At.After(cutoff) {
			kept = append(kept, n)
		}
	}
	f.notices = kept
}
