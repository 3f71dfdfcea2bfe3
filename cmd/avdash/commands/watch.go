package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/raphcvrt/Anti-Virus/internal/notify"
	"github.com/raphcvrt/Anti-Virus/internal/scheduler"
	"github.com/raphcvrt/Anti-Virus/internal/tui"
)

func NewWatchCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:         "watch",
		Short:       "Open the terminal dashboard",
		Long:        `Open the terminal dashboard. Logs are written to LOG_FILE only.`,
		Annotations: map[string]string{AnnotationQuietConsole: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), env)
		},
	}
}

func runWatch(parent context.Context, env *Env) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	screen := tui.NewScreen()
	feed := notify.NewFeed()

	sync, err := env.Sync(screen, feed, nil)
	if err != nil {
		return err
	}

	jobScheduler := scheduler.NewInMemoryScheduler(env.Log)
	if err := sync.Schedule(jobScheduler, env.Config.Intervals); err != nil {
		return fmt.Errorf("failed to schedule polling: %w", err)
	}
	if err := jobScheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer jobScheduler.Stop()

	model := tui.New(ctx, tui.SyncController{Sync: sync}, screen, feed)
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("terminal dashboard failed: %w", err)
	}
	return nil
}
