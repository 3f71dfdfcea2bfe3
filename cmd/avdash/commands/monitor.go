package commands

import (
	"github.com/spf13/cobra"
)

func NewMonitorCommand(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Control folder monitoring on the backend",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "start <folder>",
		Short: "Start monitoring a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sync, err := env.Sync(nil, printer(cmd.OutOrStdout()), nil)
			if err != nil {
				return err
			}
			return sync.StartMonitoring(cmd.Context(), args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop monitoring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sync, err := env.Sync(nil, printer(cmd.OutOrStdout()), nil)
			if err != nil {
				return err
			}
			return sync.StopMonitoring(cmd.Context())
		},
	})

	return cmd
}
