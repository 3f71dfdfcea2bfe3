package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"
)

func NewUploadCommand(env *Env) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a local file to the backend for analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer file.Close()

			info, err := file.Stat()
			if err != nil {
				return fmt.Errorf("failed to stat %s: %w", args[0], err)
			}
			if limit := env.Config.MaxUploadMB << 20; limit > 0 && info.Size() > limit {
				return fmt.Errorf("%s dépasse la taille maximale de %d Mo", info.Name(), env.Config.MaxUploadMB)
			}

			sync, err := env.Sync(nil, printer(cmd.OutOrStdout()), nil)
			if err != nil {
				return err
			}

			if quiet {
				_, err = sync.UploadFile(cmd.Context(), filepath.Base(args[0]), file)
				return err
			}

			bar := pb.New64(info.Size())
			bar.Set(pb.Bytes, true)
			bar.SetWriter(cmd.ErrOrStderr())
			bar.Start()
			_, err = sync.UploadFile(cmd.Context(), filepath.Base(args[0]), bar.NewProxyReader(file))
			bar.Finish()
			return err
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not show a progress bar")
	return cmd
}
