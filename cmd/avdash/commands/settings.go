package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func NewSettingsCommand(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the Discord notification settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := env.Settings()
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(store.Get())
			if err != nil {
				return fmt.Errorf("failed to encode settings: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})

	var (
		discord bool
		webhook string
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Update the settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sync, err := env.Sync(nil, printer(cmd.OutOrStdout()), nil)
			if err != nil {
				return err
			}
			next := sync.Settings()
			if cmd.Flags().Changed("discord") {
				next.DiscordNotifications = discord
			}
			if cmd.Flags().Changed("webhook-url") {
				next.WebhookURL = webhook
			}
			return sync.SaveSettings(cmd.Context(), next)
		},
	}
	set.Flags().BoolVar(&discord, "discord", false, "enable Discord notifications for infected files")
	set.Flags().StringVar(&webhook, "webhook-url", "", "Discord webhook URL")
	cmd.AddCommand(set)

	return cmd
}
