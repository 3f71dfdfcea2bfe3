package web

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/raphcvrt/Anti-Virus/internal/auth"
	"github.com/raphcvrt/Anti-Virus/internal/dashboard"
	"github.com/raphcvrt/Anti-Virus/internal/notify"
	"github.com/raphcvrt/Anti-Virus/internal/render"
	"github.com/raphcvrt/Anti-Virus/internal/settings"
)

type dashboardData struct {
	View        render.View
	Notices     []notify.Notice
	Settings    settings.Settings
	Snapshot    dashboard.Snapshot
	Refresh     time.Duration
	Now         time.Time
	AuthEnabled bool
}

// viewRegions is the live part of the page keyed by element id. Forms are not
// part of it, so polling never resets what the user is typing.
type viewRegions struct {
	Text    map[string]string `json:"text"`
	Class   map[string]string `json:"class"`
	HTML    map[string]string `json:"html"`
	Loading bool              `json:"loading"`
	Notices []notify.Notice   `json:"notices"`
}

type loginData struct {
	Error string
}

// HealthHandler is a simple health check endpoint
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":  "ok",
		"time":    time.Now().Format(time.RFC3339),
		"service": "avdash",
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := dashboardData{
		View:        s.page.View(),
		Notices:     s.notices(),
		Settings:    s.sync.Settings(),
		Snapshot:    s.sync.Snapshot(),
		Refresh:     s.opts.PageRefresh,
		Now:         s.now(),
		AuthEnabled: s.auth.Enabled(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pageTemplates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		s.log.Error("failed to render dashboard", zap.Error(err))
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	SendSuccessResponse(w, s.sync.Snapshot())
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	v := s.page.View()
	regions := viewRegions{
		Text:    v.Text,
		Class:   v.Class,
		HTML:    make(map[string]string, len(v.Rows)+len(v.HTML)),
		Loading: v.Loading,
		Notices: s.notices(),
	}
	regions.Text["current-date"] = render.FrenchDate(s.now())
	for id, rows := range v.Rows {
		var b strings.Builder
		for _, row := range rows {
			b.WriteString(string(row))
		}
		regions.HTML[id] = b.String()
	}
	for id, fragment := range v.HTML {
		regions.HTML[id] = string(fragment)
	}

	w.Header().Set("Cache-Control", "no-store")
	SendSuccessResponse(w, regions)
}

func (s *Server) handleNotices(w http.ResponseWriter, r *http.Request) {
	SendSuccessResponse(w, s.notices())
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	action, err := dashboard.ParseAction(mux.Vars(r)["action"])
	if err != nil {
		SendErrorResponse(w, NewAPIError(err.Error(), http.StatusNotFound))
		return
	}

	in, cleanup, apiErr := s.parseActionInput(w, r, action)
	if apiErr != nil {
		SendErrorResponse(w, apiErr)
		return
	}
	defer cleanup()

	result, err := s.sync.Dispatch(r.Context(), action, in)
	if err != nil && !errors.Is(err, dashboard.ErrCancelled) {
		s.log.Debug("action rejected",
			zap.String("action", string(action)),
			zap.Error(err))
	}

	if !wantsJSON(r) {
		// The outcome reaches the browser through the notice feed
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		SendErrorResponse(w, FromError(err))
		return
	}
	SendSuccessResponseWithMessage(w, result.Message, s.sync.Snapshot())
}

// parseActionInput reads a form, multipart or JSON body into an ActionInput
func (s *Server) parseActionInput(w http.ResponseWriter, r *http.Request, action dashboard.Action) (dashboard.ActionInput, func(), *APIError) {
	nop := func() {}
	var in dashboard.ActionInput

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req actionRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return in, nop, NewAPIError("Invalid request body", http.StatusBadRequest)
		}
		return req.input(), nop, nil
	}

	if action == dashboard.ActionUpload {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
		if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
			return in, nop, NewAPIError("Fichier trop volumineux ou formulaire invalide", http.StatusBadRequest)
		}
		cleanup := func() {
			if r.MultipartForm != nil {
				r.MultipartForm.RemoveAll()
			}
		}

		file, header, err := r.FormFile("file")
		if err != nil && !errors.Is(err, http.ErrMissingFile) {
			cleanup()
			return in, nop, NewAPIError("Formulaire d'envoi invalide", http.StatusBadRequest)
		}
		if file != nil {
			in.File = file
			in.FileName = uploadName(header)
			return in, func() { file.Close(); cleanup() }, nil
		}
		return in, cleanup, nil
	}

	if err := r.ParseForm(); err != nil {
		return in, nop, NewAPIError("Invalid form", http.StatusBadRequest)
	}
	req := actionRequest{
		Path:                 firstNonEmpty(r.PostForm.Get("path"), r.PostForm.Get("folder_path"), r.PostForm.Get("file_path")),
		Name:                 r.PostForm.Get("name"),
		Confirm:              r.PostForm.Get("confirm"),
		DiscordNotifications: formBool(r.PostForm.Get("discord_notifications")),
		WebhookURL:           r.PostForm.Get("webhook_url"),
	}
	return req.input(), nop, nil
}

// actionRequest is the JSON body of an action
type actionRequest struct {
	Path                 string `json:"path"`
	FolderPath           string `json:"folder_path"`
	FilePath             string `json:"file_path"`
	Name                 string `json:"name"`
	Confirm              string `json:"confirm"`
	DiscordNotifications bool   `json:"discord_notifications"`
	WebhookURL           string `json:"webhook_url"`
}

func (req actionRequest) input() dashboard.ActionInput {
	confirmed := formBool(req.Confirm)
	return dashboard.ActionInput{
		Path: firstNonEmpty(req.Path, req.FolderPath, req.FilePath),
		Name: req.Name,
		// The browser asked before submitting; the field records the answer
		Confirm: dashboard.ConfirmFunc(func(string) bool { return confirmed }),
		Settings: settings.Settings{
			DiscordNotifications: req.DiscordNotifications,
			WebhookURL:           req.WebhookURL,
		},
	}
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if !s.auth.Enabled() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.renderLogin(w, http.StatusOK, loginData{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.auth.Enabled() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	var password string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req struct {
			Password string `json:"password"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		password = req.Password
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}
		password = r.PostForm.Get("password")
	}

	if err := s.auth.Authenticate(password); err != nil {
		s.log.Warn("failed login attempt", zap.String("ip", getIP(r, s.opts.TrustProxy)))
		if wantsJSON(r) {
			SendErrorResponse(w, NewAPIError("Invalid credentials", http.StatusUnauthorized))
			return
		}
		s.renderLogin(w, http.StatusUnauthorized, loginData{Error: "Mot de passe incorrect."})
		return
	}

	token, err := s.auth.GenerateToken()
	if err != nil {
		s.log.Error("failed to generate token", zap.Error(err))
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	s.auth.SetSessionCookie(w, r, token)
	if wantsJSON(r) {
		SendSuccessResponse(w, map[string]any{
			"token":      token,
			"expires_in": int(s.auth.TTL().Seconds()),
		})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
}

func (s *Server) renderLogin(w http.ResponseWriter, status int, data loginData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplates.ExecuteTemplate(w, "login.html", data); err != nil {
		s.log.Error("failed to render login page", zap.Error(err))
	}
}

func (s *Server) notices() []notify.Notice {
	if s.feed == nil {
		return []notify.Notice{}
	}
	return s.feed.Active()
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func uploadName(header *multipart.FileHeader) string {
	if header == nil {
		return ""
	}
	return header.Filename
}

func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "on", "true", "yes", "oui":
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
