package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"medbee/internal/platform/config"
	"medbee/internal/platform/logger"
)

// app carries what every subcommand needs once the root has loaded it.
type app struct {
	cfg *config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var logLevel string

	root := &cobra.Command{
		Use:           "medbeectl",
		Short:         "MedBee operator tool",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			a.cfg = cfg
			a.log = logger.New(logger.Config{
				Level:  cfg.Log.Level,
				Format: "console",
				Output: cmd.ErrOrStderr(),
			})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(newSeedCmd(a), newTokenCmd(a))
	return root
}
