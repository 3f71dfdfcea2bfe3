package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphcvrt/Anti-Virus/cmd/avdash/commands"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	env := &commands.Env{}

	rootCmd := &cobra.Command{
		Use:   "avdash",
		Short: "Dashboard for the antivirus monitoring service",
		Long: `avdash polls the antivirus REST backend and shows its state as an HTML
dashboard (serve) or a terminal dashboard (watch). The other commands run a
single backend operation and exit.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch cmd.Name() {
			case "version", "hash-password", "help", "completion":
				return nil
			}
			return env.Load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&env.EnvFile, "env-file", ".env", "dotenv file to load before reading the environment")
	flags.StringVar(&env.APIURL, "api-url", "", "antivirus backend base URL (overrides API_URL)")
	flags.StringVar(&env.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&env.LogFile, "log-file", "", "rotated log file path")

	rootCmd.AddCommand(
		commands.NewServeCommand(env),
		commands.NewWatchCommand(env),
		commands.NewStatusCommand(env),
		commands.NewScanCommand(env),
		commands.NewUploadCommand(env),
		commands.NewMonitorCommand(env),
		commands.NewQuarantineCommand(env),
		commands.NewSettingsCommand(env),
		commands.NewHashPasswordCommand(),
		commands.NewVersionCommand(version, commit, buildDate),
	)

	return rootCmd
}
