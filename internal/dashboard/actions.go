package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/raphcvrt/Anti-Virus/internal/settings"
)

// Action names a user command. The names double as URL segments.
type Action string

const (
	ActionStartMonitoring  Action = "start-monitoring"
	ActionStopMonitoring   Action = "stop-monitoring"
	ActionScanFile         Action = "scan-file"
	ActionUpload           Action = "upload"
	ActionDeleteQuarantine Action = "delete-quarantine-item"
	ActionSaveSettings     Action = "save-settings"
	ActionRefresh          Action = "refresh"
)

// ErrUnknownAction is returned by Dispatch for an unregistered action
var ErrUnknownAction = errors.New("unknown action")

// ActionInput carries the values a view collected for an action. Each handler
// reads only the fields it needs.
type ActionInput struct {
	Path     string // folder or file on the backend host
	Name     string // quarantine item
	FileName string // uploaded file name
	File     io.Reader
	Confirm  Confirmer
	Settings settings.Settings
}

// ActionResult is what a handler reports back to the view
type ActionResult struct {
	Message string
}

// ActionHandler runs one action
type ActionHandler func(ctx context.Context, in ActionInput) (ActionResult, error)

// Confirmer asks the user to approve a destructive action
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

var (
	// AlwaysConfirm approves every prompt, for views that already asked
	AlwaysConfirm Confirmer = ConfirmFunc(func(string) bool { return true })
	// NeverConfirm declines every prompt
	NeverConfirm Confirmer = ConfirmFunc(func(string) bool { return false })
)

// ParseAction maps a URL segment or key binding name to an Action
func ParseAction(name string) (Action, error) {
	action := Action(name)
	switch action {
	case ActionStartMonitoring, ActionStopMonitoring, ActionScanFile, ActionUpload,
		ActionDeleteQuarantine, ActionSaveSettings, ActionRefresh:
		return action, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

func (s *Sync) defaultHandlers() map[Action]ActionHandler {
	return map[Action]ActionHandler{
		ActionStartMonitoring: func(ctx context.Context, in ActionInput) (ActionResult, error) {
			if err := s.StartMonitoring(ctx, in.Path); err != nil {
				return ActionResult{}, err
			}
			return ActionResult{Message: msgStarted}, nil
		},
		ActionStopMonitoring: func(ctx context.Context, in ActionInput) (ActionResult, error) {
			if err := s.StopMonitoring(ctx); err != nil {
				return ActionResult{}, err
			}
			return ActionResult{Message: msgStopped}, nil
		},
		ActionScanFile: func(ctx context.Context, in ActionInput) (ActionResult, error) {
			result, err := s.ScanFile(ctx, in.Path)
			if err != nil {
				return ActionResult{}, err
			}
			return ActionResult{Message: fmt.Sprintf("%s: %s (%s)", result.FilePath, result.Status, result.Action)}, nil
		},
		ActionUpload: func(ctx context.Context, in ActionInput) (ActionResult, error) {
			result, err := s.UploadFile(ctx, in.FileName, in.File)
			if err != nil {
				return ActionResult{}, err
			}
			return ActionResult{Message: "Fichier analysé : " + result}, nil
		},
		ActionDeleteQuarantine: func(ctx context.Context, in ActionInput) (ActionResult, error) {
			if err := s.DeleteQuarantineItem(ctx, in.Name, in.Confirm); err != nil {
				return ActionResult{}, err
			}
			return ActionResult{Message: fmt.Sprintf("%s a été supprimé de la quarantaine.", in.Name)}, nil
		},
		ActionSaveSettings: func(ctx context.Context, in ActionInput) (ActionResult, error) {
			if err := s.SaveSettings(ctx, in.Settings); err != nil {
				return ActionResult{}, err
			}
			return ActionResult{Message: msgSettingsSaved}, nil
		},
		ActionRefresh: func(ctx context.Context, in ActionInput) (ActionResult, error) {
			return ActionResult{}, s.RefreshAll(ctx)
		},
	}
}

// On replaces the handler of action. It must be called before the Sync is shared.
func (s *Sync) On(action Action, h ActionHandler) {
	s.handlers[action] = h
}

// Dispatch runs the handler subscribed to action
func (s *Sync) Dispatch(ctx context.Context, action Action, in ActionInput) (ActionResult, error) {
	h, ok := s.handlers[action]
	if !ok {
		return ActionResult{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return h(ctx, in)
}

// Actions lists the subscribed actions in name order
func (s *Sync) Actions() []Action {
	actions := make([]Action, 0, len(s.handlers))
	for action := range s.handlers {
		actions = append(actions, action)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	return actions
}
