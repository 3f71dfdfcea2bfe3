package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/raphcvrt/Anti-Virus/internal/client"
	"github.com/raphcvrt/Anti-Virus/internal/models"
	"github.com/raphcvrt/Anti-Virus/internal/notify"
	"github.com/raphcvrt/Anti-Virus/internal/render"
	"github.com/raphcvrt/Anti-Virus/internal/settings"
)

var (
	// ErrUploadInFlight is returned when an upload is attempted while another one runs
	ErrUploadInFlight = errors.New("an upload is already in progress")
	// ErrCancelled is returned when the user declines a confirmation
	ErrCancelled = errors.New("action cancelled")
)

// User-facing messages
const (
	msgFolderRequired   = "Veuillez spécifier un dossier à surveiller."
	msgFileRequired     = "Veuillez spécifier un fichier à analyser."
	msgUploadRequired   = "Veuillez sélectionner un fichier à envoyer."
	msgStarted          = "Surveillance démarrée avec succès."
	msgStopped          = "Surveillance arrêtée avec succès."
	msgSettingsSaved    = "Paramètres enregistrés avec succès."
	msgUploadInProgress = "Un envoi est déjà en cours."

	actionUploaded = "envoyé pour analyse"
)

// StartMonitoring asks the backend to watch folder
func (s *Sync) StartMonitoring(ctx context.Context, folder string) error {
	folder = strings.TrimSpace(folder)
	if folder == "" {
		err := client.NewValidationError(client.OpStartMonitoring, msgFolderRequired)
		s.failAction(ActionStartMonitoring, err, notify.KindAlert)
		return err
	}

	_, err := s.backend.StartMonitoring(ctx, folder)
	if err != nil {
		s.failAction(ActionStartMonitoring, err, notify.KindAlert)
		return err
	}

	s.log.Info("monitoring started", zap.String("folder", folder))
	s.metrics.ObserveAction(string(ActionStartMonitoring), nil)
	s.notice(notify.KindAlert, notify.LevelSuccess, msgStarted)
	_ = s.RefreshStatus(ctx)
	return nil
}

// StopMonitoring asks the backend to stop watching
func (s *Sync) StopMonitoring(ctx context.Context) error {
	if _, err := s.backend.StopMonitoring(ctx); err != nil {
		s.failAction(ActionStopMonitoring, err, notify.KindAlert)
		return err
	}

	s.log.Info("monitoring stopped")
	s.metrics.ObserveAction(string(ActionStopMonitoring), nil)
	s.notice(notify.KindAlert, notify.LevelSuccess, msgStopped)
	_ = s.RefreshStatus(ctx)
	return nil
}

// ScanFile scans a path on the backend host and shows the verdict inline
func (s *Sync) ScanFile(ctx context.Context, path string) (models.ScanFileResult, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		err := client.NewValidationError(client.OpScanFile, msgFileRequired)
		s.failAction(ActionScanFile, err, notify.KindAlert)
		return models.ScanFileResult{}, err
	}

	result, err := s.backend.ScanFile(ctx, path)
	if err != nil {
		s.failAction(ActionScanFile, err, notify.KindAlert)
		return models.ScanFileResult{}, err
	}
	s.metrics.ObserveAction(string(ActionScanFile), nil)

	s.state.update(CollectionLastScan, func(st *State) {
		last := result
		st.lastScan = &last
		s.view.RenderScanResult(result)
	})

	if result.Infected() {
		s.log.Warn("infected file detected",
			zap.String("file", result.FilePath),
			zap.String("action", result.Action))
		s.alert(ctx, result)
	}

	_ = s.RefreshScanHistory(ctx)
	return result, nil
}

// UploadFile sends a local file to the backend for scanning. Only one upload
// runs at a time; a concurrent attempt returns ErrUploadInFlight without
// touching the network.
func (s *Sync) UploadFile(ctx context.Context, name string, r io.Reader) (string, error) {
	if r == nil || strings.TrimSpace(name) == "" {
		err := client.NewValidationError(client.OpUpload, msgUploadRequired)
		s.failAction(ActionUpload, err, notify.KindToast)
		return "", err
	}

	if !s.uploading.CompareAndSwap(false, true) {
		s.log.Debug("upload ignored, another one is in flight", zap.String("file", name))
		s.notice(notify.KindToast, notify.LevelInfo, msgUploadInProgress)
		return "", ErrUploadInFlight
	}

	result, err := s.upload(ctx, name, r)
	if err != nil {
		s.failAction(ActionUpload, err, notify.KindToast)
		return "", err
	}

	s.log.Info("file uploaded", zap.String("file", name), zap.String("result", result))
	s.metrics.ObserveAction(string(ActionUpload), nil)
	s.notice(notify.KindToast, notify.LevelSuccess, "Fichier analysé : "+result)

	if models.ParseScanStatus(result) == models.StatusInfected {
		s.log.Warn("infected file uploaded", zap.String("file", name))
		s.alert(ctx, models.ScanFileResult{FilePath: name, Status: result, Action: actionUploaded})
	}

	_ = s.RefreshScanHistory(ctx)
	_ = s.RefreshRecentScans(ctx)
	_ = s.RefreshStats(ctx)
	return result, nil
}

// upload holds the single-flight flag and the loading indicator for the
// duration of the request only.
func (s *Sync) upload(ctx context.Context, name string, r io.Reader) (string, error) {
	s.view.SetLoading(true)
	s.metrics.SetUploadInFlight(true)
	defer func() {
		s.view.SetLoading(false)
		s.metrics.SetUploadInFlight(false)
		s.uploading.Store(false)
	}()

	return s.backend.Upload(ctx, name, r)
}

// DeleteQuarantineItem removes name from the quarantine after confirmation.
// The row disappears locally right away; the next quarantine poll restores
// the backend's view if the removal did not happen there.
func (s *Sync) DeleteQuarantineItem(ctx context.Context, name string, confirm Confirmer) error {
	if strings.TrimSpace(name) == "" {
		err := client.NewValidationError(client.OpDeleteQuarantine, "Veuillez sélectionner un fichier.")
		s.failAction(ActionDeleteQuarantine, err, notify.KindAlert)
		return err
	}
	if confirm == nil || !confirm.Confirm(render.DeletePrompt(name)) {
		s.log.Debug("quarantine deletion declined", zap.String("name", name))
		return ErrCancelled
	}

	s.state.update(CollectionQuarantine, func(st *State) {
		st.quarantine, _ = removeQuarantineItem(st.quarantine, name)
		s.view.RenderQuarantine(st.quarantine)
	})

	if err := s.backend.DeleteQuarantineItem(ctx, name); err != nil {
		s.failAction(ActionDeleteQuarantine, err, notify.KindAlert)
		return err
	}

	s.log.Info("quarantine item deleted", zap.String("name", name))
	s.metrics.ObserveAction(string(ActionDeleteQuarantine), nil)
	s.notice(notify.KindAlert, notify.LevelSuccess, fmt.Sprintf("%s a été supprimé de la quarantaine.", name))
	return nil
}

// SaveSettings persists the notification preferences
func (s *Sync) SaveSettings(ctx context.Context, next settings.Settings) error {
	if s.settings == nil {
		err := errors.New("settings storage is not configured")
		s.failAction(ActionSaveSettings, err, notify.KindAlert)
		return err
	}

	if err := s.settings.Save(next); err != nil {
		s.failAction(ActionSaveSettings, err, notify.KindAlert)
		return err
	}

	s.log.Info("settings saved", zap.Bool("discord_notifications", next.DiscordNotifications))
	s.metrics.ObserveAction(string(ActionSaveSettings), nil)
	s.notice(notify.KindAlert, notify.LevelSuccess, msgSettingsSaved)
	return nil
}

// Settings returns the current preferences
func (s *Sync) Settings() settings.Settings {
	if s.settings == nil {
		return settings.Settings{}
	}
	return s.settings.Get()
}

// failAction records a failed action and tells the user why
func (s *Sync) failAction(action Action, err error, kind notify.Kind) {
	s.metrics.ObserveAction(string(action), err)
	s.log.Warn("action failed",
		zap.String("action", string(action)),
		zap.String("kind", client.KindOf(err).String()),
		zap.Error(err))

	msg := client.MessageOf(err)
	if client.KindOf(err) == client.ValidationFailure {
		s.notice(kind, notify.LevelError, msg)
		return
	}
	if kind == notify.KindToast {
		s.notice(kind, notify.LevelError, "Erreur : "+msg)
		return
	}
	s.notice(kind, notify.LevelError, "Erreur: "+msg)
}

func (s *Sync) alert(ctx context.Context, result models.ScanFileResult) {
	if s.alerter == nil {
		return
	}
	err := s.alerter.Send(ctx, notifyMessage(result))
	switch {
	case err == nil:
		s.log.Info("infection alert sent", zap.String("file", result.FilePath))
	case errors.Is(err, notify.ErrDisabled):
	default:
		s.log.Error("failed to send infection alert", zap.Error(err))
	}
}

func notifyMessage(result models.ScanFileResult) string {
	return notify.InfectedFileMessage(result.FilePath, result.Action)
}
