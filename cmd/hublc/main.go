package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootConfigPath string
var verbose bool

// cfg is loaded before any subcommand runs.
var cfg = defaultConfig()

var rootCmd = cobra.Command{
	Use:           "hublc",
	Short:         "Render HubL templates and run Starlark scripts",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadHublcConfig(rootConfigPath, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		cfg = loaded
		level := cfg.slogLevel()
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", defaultConfigPath, "Path to hublc configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Write output to a file, or a directory when rendering several sources")
	renderCmd.Flags().StringVar(&sessionPath, "session", "", "Load and save variables in this session database")
	rootCmd.AddCommand(&renderCmd)

	watchCmd.Flags().StringVar(&sessionPath, "session", "", "Load variables from this session database before each render")
	rootCmd.AddCommand(&watchCmd)

	runCmd.Flags().BoolVar(&runVars, "vars", false, "Expose template variables as script globals")
	runCmd.Flags().StringVar(&sessionPath, "session", "", "Load and save variables in this session database")
	rootCmd.AddCommand(&runCmd)

	rootCmd.AddCommand(&filtersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errScriptFailed) {
			slog.Error("fatal", "error", err)
		}
		os.Exit(1)
	}
}
