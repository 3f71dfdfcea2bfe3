package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DegradedMode decides what the stats counters show after a failed refresh
type DegradedMode string

const (
	// DegradedKeep keeps the last values received from the backend
	DegradedKeep DegradedMode = "keep"
	// DegradedReset zeroes the counters
	DegradedReset DegradedMode = "reset"
)

// Intervals holds the polling period of each collection. Zero disables polling.
type Intervals struct {
	Status      time.Duration
	ScanHistory time.Duration
	Quarantine  time.Duration
	Stats       time.Duration
	RecentScans time.Duration
}

// Config is the dashboard configuration
type Config struct {
	APIURL               string
	ListenAddr           string
	HTTPTimeout          time.Duration
	Intervals            Intervals
	DegradedMode         DegradedMode
	QuarantineDeletePath string
	SettingsFile         string

	LogLevel string
	LogFile  string

	JWTSecret    string
	PasswordHash string
	SessionTTL   time.Duration

	RateLimit   float64 // requests per second per client on /actions
	RateBurst   int
	TrustProxy  bool // take the client IP from X-Forwarded-For / X-Real-IP
	PageRefresh time.Duration
	MaxUploadMB int64
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		APIURL:      "http://localhost:8080/api",
		ListenAddr:  ":9555",
		HTTPTimeout: 30 * time.Second,
		Intervals: Intervals{
			Status:      5 * time.Second,
			ScanHistory: 5 * time.Second,
			Quarantine:  10 * time.Second,
		},
		DegradedMode:         DegradedKeep,
		QuarantineDeletePath: "",
		SettingsFile:         "settings.yaml",
		LogLevel:             "info",
		SessionTTL:           24 * time.Hour,
		RateLimit:            5,
		RateBurst:            20,
		PageRefresh:          5 * time.Second,
		MaxUploadMB:          32,
	}
}

// Load reads envFile (when present) and the process environment on top of the
// defaults. A missing env file is not an error.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	// Missing file means plain environment variables
	_ = godotenv.Load(envFile)

	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from a lookup function
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	r := reader{lookup: lookup}

	cfg.APIURL = r.str("API_URL", cfg.APIURL)
	cfg.ListenAddr = r.str("DASHBOARD_ADDR", cfg.ListenAddr)
	cfg.HTTPTimeout = r.duration("HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.Intervals.Status = r.duration("STATUS_INTERVAL", cfg.Intervals.Status)
	cfg.Intervals.ScanHistory = r.duration("HISTORY_INTERVAL", cfg.Intervals.ScanHistory)
	cfg.Intervals.Quarantine = r.duration("QUARANTINE_INTERVAL", cfg.Intervals.Quarantine)
	cfg.Intervals.Stats = r.duration("STATS_INTERVAL", cfg.Intervals.Stats)
	cfg.Intervals.RecentScans = r.duration("RECENT_SCANS_INTERVAL", cfg.Intervals.RecentScans)
	cfg.DegradedMode = DegradedMode(strings.ToLower(r.str("DEGRADED_MODE", string(cfg.DegradedMode))))
	cfg.QuarantineDeletePath = r.strAllowEmpty("QUARANTINE_DELETE_PATH", cfg.QuarantineDeletePath)
	cfg.SettingsFile = r.str("SETTINGS_FILE", cfg.SettingsFile)
	cfg.LogLevel = r.str("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = r.str("LOG_FILE", cfg.LogFile)
	cfg.JWTSecret = r.str("JWT_SECRET", cfg.JWTSecret)
	cfg.PasswordHash = r.str("DASHBOARD_PASSWORD_HASH", cfg.PasswordHash)
	cfg.SessionTTL = r.duration("SESSION_TTL", cfg.SessionTTL)
	cfg.RateLimit = r.float("RATE_LIMIT", cfg.RateLimit)
	cfg.RateBurst = r.int("RATE_BURST", cfg.RateBurst)
	cfg.TrustProxy = r.bool("TRUST_PROXY", cfg.TrustProxy)
	cfg.PageRefresh = r.duration("PAGE_REFRESH", cfg.PageRefresh)
	cfg.MaxUploadMB = int64(r.int("MAX_UPLOAD_MB", int(cfg.MaxUploadMB)))

	if r.err != nil {
		return Config{}, r.err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at runtime
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API_URL must be an absolute http(s) URL, got %q", c.APIURL)
	}

	switch c.DegradedMode {
	case DegradedKeep, DegradedReset:
	default:
		return fmt.Errorf("DEGRADED_MODE must be %q or %q, got %q", DegradedKeep, DegradedReset, c.DegradedMode)
	}

	for name, d := range map[string]time.Duration{
		"STATUS_INTERVAL":       c.Intervals.Status,
		"HISTORY_INTERVAL":      c.Intervals.ScanHistory,
		"QUARANTINE_INTERVAL":   c.Intervals.Quarantine,
		"STATS_INTERVAL":        c.Intervals.Stats,
		"RECENT_SCANS_INTERVAL": c.Intervals.RecentScans,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}

	if c.QuarantineDeletePath != "" && !strings.Contains(c.QuarantineDeletePath, "{name}") {
		return fmt.Errorf("QUARANTINE_DELETE_PATH must contain {name}, got %q", c.QuarantineDeletePath)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// AuthEnabled reports whether the web dashboard requires a login
func (c Config) AuthEnabled() bool {
	return c.PasswordHash != ""
}

type reader struct {
	lookup func(string) (string, bool)
	err    error
}

func (r *reader) str(key, def string) string {
	if v, ok := r.lookup(key); ok && v != "" {
		return v
	}
	return def
}

// strAllowEmpty lets an explicitly empty variable override the default
func (r *reader) strAllowEmpty(key, def string) string {
	if v, ok := r.lookup(key); ok {
		return v
	}
	return def
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(fmt.Errorf("invalid %s: %v", key, err))
		return def
	}
	return d
}

func (r *reader) int(key string, def int) int {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(fmt.Errorf("invalid %s: %v", key, err))
		return def
	}
	return n
}

func (r *reader) bool(key string, def bool) bool {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(fmt.Errorf("invalid %s: %v", key, err))
		return def
	}
	return b
}

func (r *reader) float(key string, def float64) float64 {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(fmt.Errorf("invalid %s: %v", key, err))
		return def
	}
	return f
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}
