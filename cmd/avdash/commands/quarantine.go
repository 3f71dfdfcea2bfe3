package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/raphcvrt/Anti-Virus/internal/dashboard"
	"github.com/raphcvrt/Anti-Virus/internal/render"
)

func NewQuarantineCommand(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "quarantine",
		Aliases: []string{"q"},
		Short:   "Inspect and clean the quarantine",
	}
	cmd.AddCommand(newQuarantineListCommand(env), newQuarantineRemoveCommand(env))
	return cmd
}

func newQuarantineListCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List quarantined files",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sync, err := env.Sync(nil, printer(cmd.ErrOrStderr()), nil)
			if err != nil {
				return err
			}
			if err := sync.RefreshQuarantine(cmd.Context()); err != nil {
				return err
			}

			items := sync.Snapshot().Quarantine
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), render.PlaceholderQuarantine)
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NOM\tTAILLE\tDATE")
			for _, item := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\n", item.Name, render.FormatSize(item.SizeBytes), item.QuarantinedAt)
			}
			return w.Flush()
		},
	}
}

func newQuarantineRemoveCommand(env *Env) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <name>",
		Aliases: []string{"delete"},
		Short:   "Delete a file from the quarantine",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sync, err := env.Sync(nil, printer(cmd.OutOrStdout()), nil)
			if err != nil {
				return err
			}
			if err := sync.RefreshQuarantine(cmd.Context()); err != nil {
				return err
			}

			confirm := dashboard.AlwaysConfirm
			if !yes {
				confirm = promptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
			}
			err = sync.DeleteQuarantineItem(cmd.Context(), args[0], confirm)
			if errors.Is(err, dashboard.ErrCancelled) {
				fmt.Fprintln(cmd.OutOrStdout(), "Suppression annulée.")
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// promptConfirmer asks on out and reads a y/o answer from in
func promptConfirmer(in io.Reader, out io.Writer) dashboard.Confirmer {
	return dashboard.ConfirmFunc(func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		answer, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && answer == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes", "o", "oui":
			return true
		}
		return false
	})
}
