package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/raphcvrt/Anti-Virus/internal/auth"
	"github.com/raphcvrt/Anti-Virus/internal/client"
	"github.com/raphcvrt/Anti-Virus/internal/dashboard"
	"github.com/raphcvrt/Anti-Virus/internal/metrics"
	"github.com/raphcvrt/Anti-Virus/internal/models"
	"github.com/raphcvrt/Anti-Virus/internal/notify"
	"github.com/raphcvrt/Anti-Virus/internal/render"
	"github.com/raphcvrt/Anti-Virus/internal/settings"
)

// stubBackend stands in for the scanning service
type stubBackend struct {
	mu         sync.Mutex
	quarantine []models.QuarantineItem
	startErr   error
	uploaded   map[string]string
	deleted    []string
}

func (b *stubBackend) Status(ctx context.Context) (models.MonitorStatus, error) {
	return models.MonitorStatus{Running: true, WatchedFolder: "/srv/in"}, nil
}

func (b *stubBackend) Stats(ctx context.Context) (models.DashboardStats, error) {
	return models.DashboardStats{FilesScanned: 42, ThreatsDetected: 3, WatchedFolders: 1, ProtectionRate: 93}, nil
}

func (b *stubBackend) ScanHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	return []models.HistoryEntry{{Timestamp: "2025-10-18T09:00:00Z", FilePath: "/srv/in/a.txt", Status: "clean", Action: "none"}}, nil
}

func (b *stubBackend) QuarantineItems(ctx context.Context) ([]models.QuarantineItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.QuarantineItem(nil), b.quarantine...), nil
}

func (b *stubBackend) RecentScans(ctx context.Context) ([]models.ScanRecord, error) {
	return nil, nil
}

func (b *stubBackend) StartMonitoring(ctx context.Context, folder string) (string, error) {
	return "ok", b.startErr
}

func (b *stubBackend) StopMonitoring(ctx context.Context) (string, error) {
	return "ok", nil
}

func (b *stubBackend) ScanFile(ctx context.Context, path string) (models.ScanFileResult, error) {
	return models.ScanFileResult{FilePath: path, Status: "clean", Action: "none"}, nil
}

func (b *stubBackend) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.uploaded == nil {
		b.uploaded = make(map[string]string)
	}
	b.uploaded[name] = string(data)
	return "clean", nil
}

func (b *stubBackend) DeleteQuarantineItem(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, name)
	return nil
}

type testServer struct {
	backend *stubBackend
	sync    *dashboard.Sync
	feed    *notify.Feed
	router  http.Handler
}

func newTestServer(t *testing.T, authSvc *auth.Service) *testServer {
	t.Helper()

	store, err := settings.Open(t.TempDir() + "/settings.yaml")
	require.NoError(t, err)

	backend := &stubBackend{quarantine: []models.QuarantineItem{{Name: "a.exe", SizeBytes: 2048, QuarantinedAt: "2025-10-01"}}}
	page := render.NewPage()
	feed := notify.NewFeed()
	rec := metrics.New()
	s := dashboard.New(backend, dashboard.Options{
		Renderer: page,
		Notifier: feed,
		Settings: store,
		Metrics:  rec,
	})
	require.NoError(t, s.RefreshAll(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := NewServer(s, page, feed, authSvc, rec, nil, Options{RateLimit: 1000, RateBurst: 1000})
	return &testServer{backend: backend, sync: s, feed: feed, router: srv.Router(ctx)}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestIndexRendersDashboard(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `<span id="monitor-status">Actif</span>`)
	assert.Contains(t, body, "bg-success")
	assert.Contains(t, body, "Dossier surveillé: /srv/in")
	assert.Contains(t, body, `<div id="files-scanned" class="h4">42</div>`)
	assert.Contains(t, body, `<div id="protection-rate" class="h4">93%</div>`)
	assert.Contains(t, body, "<td>2.00 KB</td>")
	assert.Contains(t, body, render.PlaceholderRecent)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestDashboardPollsRegionsWithoutReloadingForms(t *testing.T) {
	ts := newTestServer(t, nil)

	page := ts.do(httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	assert.NotContains(t, page, `http-equiv="refresh"`)
	assert.Contains(t, page, `fetch("/api/view"`)
	assert.Contains(t, page, "5000")

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/view", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data viewRegions `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "42", resp.Data.Text[render.IDFilesScanned])
	assert.Equal(t, "Actif", resp.Data.Text[render.IDMonitorStatus])
	assert.NotEmpty(t, resp.Data.Text["current-date"])
	assert.Contains(t, resp.Data.HTML[render.IDQuarantine], "a.exe")
	assert.Contains(t, resp.Data.HTML[render.IDRecentScans], render.PlaceholderRecent)

	formIDs := []string{"folder-path", "file-path", "file-input", "settings-form", "webhook-url", "discord-notifications"}
	for id, fragment := range resp.Data.HTML {
		assert.NotContains(t, formIDs, id)
		for _, formID := range formIDs {
			assert.NotContains(t, fragment, `id="`+formID+`"`, "region %s", id)
		}
	}
	for id := range resp.Data.Text {
		assert.NotContains(t, formIDs, id)
	}
}

func TestStateEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string             `json:"status"`
		Data   dashboard.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, int64(42), resp.Data.Stats.FilesScanned)
	assert.Len(t, resp.Data.Quarantine, 1)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "avdash_refresh_total")
}

func TestFormActionRedirectsWithNotice(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(postForm("/actions/start-monitoring", url.Values{"folder_path": {""}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	n, ok := ts.feed.Latest()
	require.True(t, ok)
	assert.Equal(t, "Veuillez spécifier un dossier à surveiller.", n.Message)

	page := ts.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, page.Body.String(), "Veuillez spécifier un dossier à surveiller.")
}

func TestJSONActionErrors(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.backend.startErr = &client.Error{Kind: client.BackendFailure, Op: client.OpStartMonitoring, Message: "Dossier introuvable"}

	req := httptest.NewRequest(http.MethodPost, "/actions/start-monitoring", strings.NewReader(`{"folder_path":"/nope"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	rec := ts.do(req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dossier introuvable")
}

func TestUnknownAction(t *testing.T) {
	ts := newTestServer(t, nil)
	req := postForm("/actions/format-disk", url.Values{})
	req.Header.Set("Accept", "application/json")
	rec := ts.do(req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteQuarantineRequiresConfirmation(t *testing.T) {
	ts := newTestServer(t, nil)

	req := postForm("/actions/delete-quarantine-item", url.Values{"name": {"a.exe"}})
	req.Header.Set("Accept", "application/json")
	rec := ts.do(req)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, ts.backend.deleted)

	req = postForm("/actions/delete-quarantine-item", url.Values{"name": {"a.exe"}, "confirm": {"yes"}})
	req.Header.Set("Accept", "application/json")
	rec = ts.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"a.exe"}, ts.backend.deleted)
	assert.Contains(t, rec.Body.String(), "a.exe a été supprimé de la quarantaine.")
	assert.Empty(t, ts.sync.Snapshot().Quarantine)
}

func TestUploadAction(t *testing.T) {
	ts := newTestServer(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "report.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.7"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/actions/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	rec := ts.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Fichier analysé : clean")
	assert.Equal(t, "%PDF-1.7", ts.backend.uploaded["report.pdf"])
}

func TestSaveSettingsAction(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(postForm("/actions/save-settings", url.Values{
		"discord_notifications": {"on"},
		"webhook_url":           {"https://discord.com/api/webhooks/1/abc"},
	}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	current := ts.sync.Settings()
	assert.True(t, current.DiscordNotifications)
	assert.Equal(t, "https://discord.com/api/webhooks/1/abc", current.WebhookURL)
}

func TestInvalidContentTypeRejected(t *testing.T) {
	ts := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/actions/refresh", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	rec := ts.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginFlow(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	ts := newTestServer(t, auth.NewService("secret", string(hash), 0, nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html")
	rec := ts.do(req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, auth.LoginPath, rec.Header().Get("Location"))

	rec = ts.do(postForm("/login", url.Values{"password": {"wrong"}}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Mot de passe incorrect.")

	rec = ts.do(postForm("/login", url.Values{"password": {"s3cret"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, auth.CookieName, cookies[0].Name)

	req = httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.AddCookie(cookies[0])
	rec = ts.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0, 2)
	assert.True(t, rl.Allow("10.0.0.1", 1))
	assert.True(t, rl.Allow("10.0.0.1", 1))
	assert.False(t, rl.Allow("10.0.0.1", 1))
	assert.True(t, rl.Allow("10.0.0.2", 1), "limits are per client")

	rl.Cleanup(0)
	assert.True(t, rl.Allow("10.0.0.1", 1), "cleanup forgets idle clients")
}

func TestGetIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", getIP(req, false))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("X-Real-IP", "198.51.100.4")
	assert.Equal(t, "192.0.2.1", getIP(req, false), "forwarding headers are ignored unless trusted")
	assert.Equal(t, "203.0.113.9", getIP(req, true))

	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "198.51.100.4", getIP(req, true))
}

func TestLoginRateLimitIgnoresForwardedFor(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	store, err := settings.Open(t.TempDir() + "/settings.yaml")
	require.NoError(t, err)
	page := render.NewPage()
	s := dashboard.New(&stubBackend{}, dashboard.Options{Renderer: page, Settings: store})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv := NewServer(s, page, notify.NewFeed(), auth.NewService("secret", string(hash), 0, nil), nil, nil,
		Options{RateLimit: 0.001, RateBurst: 5})
	router := srv.Router(ctx)

	attempt := func(forwarded string) int {
		req := postForm("/login", url.Values{"password": {"wrong"}})
		req.RemoteAddr = "192.0.2.10:5555"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	// A login attempt costs the whole burst
	assert.Equal(t, http.StatusUnauthorized, attempt("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, attempt("203.0.113.2"))
}

func TestFromError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, FromError(client.NewValidationError("scan-file", "x")).Status)
	assert.Equal(t, http.StatusServiceUnavailable, FromError(&client.Error{Kind: client.NetworkFailure, Op: "status"}).Status)
	assert.Equal(t, http.StatusConflict, FromError(dashboard.ErrUploadInFlight).Status)
}
