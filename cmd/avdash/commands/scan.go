package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewScanCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <path>",
		Short: "Ask the backend to scan a file on its host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sync, err := env.Sync(nil, printer(cmd.ErrOrStderr()), nil)
			if err != nil {
				return err
			}
			result, err := sync.ScanFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", args[0], result.Status, result.Action)
			return nil
		},
	}
}
