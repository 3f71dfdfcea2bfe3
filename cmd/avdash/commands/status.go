package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/raphcvrt/Anti-Virus/internal/dashboard"
	"github.com/raphcvrt/Anti-Virus/internal/render"
)

func NewStatusCommand(env *Env) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the monitor status and dashboard figures",
		RunE: func(cmd *cobra.Command, args []string) error {
			sync, err := env.Sync(nil, printer(cmd.ErrOrStderr()), nil)
			if err != nil {
				return err
			}
			// Partial results are still printed; failures were already reported.
			_ = sync.RefreshAll(cmd.Context())

			snap := sync.Snapshot()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			return printSnapshot(cmd.OutOrStdout(), snap)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	return cmd
}

func printSnapshot(out io.Writer, snap dashboard.Snapshot) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Statut:\t%s\n", render.StatusLabel(snap.Status))
	fmt.Fprintf(w, "Dossier:\t%s\n", render.WatchedFolderText(snap.Status))
	fmt.Fprintf(w, "Fichiers analysés:\t%s\n", render.FormatCount(snap.Stats.FilesScanned))
	fmt.Fprintf(w, "Menaces détectées:\t%s\n", render.FormatCount(snap.Stats.ThreatsDetected))
	fmt.Fprintf(w, "Dossiers surveillés:\t%s\n", render.FormatCount(snap.Stats.WatchedFolders))
	fmt.Fprintf(w, "Taux de protection:\t%s\n", render.FormatPercent(snap.Stats.ProtectionRate))
	fmt.Fprintf(w, "Historique:\t%d entrées\n", len(snap.ScanHistory))
	fmt.Fprintf(w, "Quarantaine:\t%d fichiers\n", len(snap.Quarantine))
	fmt.Fprintf(w, "Analyses récentes:\t%d\n", len(snap.RecentScans))
	return w.Flush()
}
