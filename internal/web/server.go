// Package web serves the HTML dashboard and its action endpoints.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/raphcvrt/Anti-Virus/internal/auth"
	"github.com/raphcvrt/Anti-Virus/internal/dashboard"
	"github.com/raphcvrt/Anti-Virus/internal/metrics"
	"github.com/raphcvrt/Anti-Virus/internal/notify"
	"github.com/raphcvrt/Anti-Virus/internal/render"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.New("pages").Funcs(template.FuncMap{
	"frenchDate": render.FrenchDate,
	"millis":     func(d time.Duration) int64 { return d.Milliseconds() },
}).ParseFS(templateFS, "templates/*.html"))

// Options tunes the server. Zero values fall back to defaults.
type Options struct {
	PageRefresh    time.Duration
	MaxUploadBytes int64
	RateLimit      float64
	RateBurst      int
	TrustProxy     bool
}

// Server wires the dashboard to HTTP
type Server struct {
	sync    *dashboard.Sync
	page    *render.Page
	feed    *notify.Feed
	auth    *auth.Service
	metrics *metrics.Recorder
	log     *zap.Logger
	opts    Options
	now     func() time.Time
}

// NewServer creates the dashboard server. page must be the renderer bound to
// sync and feed one of its notifiers.
func NewServer(sync *dashboard.Sync, page *render.Page, feed *notify.Feed, authSvc *auth.Service, rec *metrics.Recorder, log *zap.Logger, opts Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if authSvc == nil {
		authSvc = auth.NewService("", "", 0, log)
	}
	if opts.PageRefresh <= 0 {
		opts.PageRefresh = 5 * time.Second
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 20
	}
	return &Server{
		sync:    sync,
		page:    page,
		feed:    feed,
		auth:    authSvc,
		metrics: rec,
		log:     log,
		opts:    opts,
		now:     time.Now,
	}
}

// Router sets up the dashboard routes. ctx bounds the rate limiter cleanup.
func (s *Server) Router(ctx context.Context) *mux.Router {
	router := mux.NewRouter()

	router.Use(LoggingMiddleware(s.log))
	router.Use(InputValidationMiddleware)

	// Public routes (no authentication required)
	router.HandleFunc("/healthz", HealthHandler).Methods(http.MethodGet)
	router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	loginLimiter := RateLimitMiddleware(ctx, rate.Limit(s.opts.RateLimit), s.opts.RateBurst, s.opts.TrustProxy)
	router.HandleFunc(auth.LoginPath, s.handleLoginPage).Methods(http.MethodGet)
	router.Handle(auth.LoginPath, loginLimiter(http.HandlerFunc(s.handleLogin))).Methods(http.MethodPost)
	router.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)

	// Protected routes (authentication required when a password is set)
	protected := router.NewRoute().Subrouter()
	protected.Use(s.auth.Middleware)

	protected.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	protected.HandleFunc("/api/state", s.handleState).Methods(http.MethodGet)
	protected.HandleFunc("/api/view", s.handleView).Methods(http.MethodGet)
	protected.HandleFunc("/api/notices", s.handleNotices).Methods(http.MethodGet)

	actions := protected.PathPrefix("/actions").Subrouter()
	actions.Use(RateLimitMiddleware(ctx, rate.Limit(s.opts.RateLimit), s.opts.RateBurst, s.opts.TrustProxy))
	actions.HandleFunc("/{action}", s.handleAction).Methods(http.MethodPost)

	return router
}
