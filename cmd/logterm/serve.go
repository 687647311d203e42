package main

import (
	"github.com/spf13/cobra"

	"github.com/architect-xyz/logterm/internal/config"
	"github.com/architect-xyz/logterm/internal/logging"
	"github.com/architect-xyz/logterm/internal/server"
)

func newServeCommand() *cobra.Command {
	var bind string
	var logLevel string
	var roots []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the log server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if bind == "" {
				bind = cfg.Server.Bind
			}
			if logLevel == "" {
				logLevel = cfg.Server.LogLevel
			}
			if len(roots) == 0 {
				roots = cfg.Server.LogRoots
			}

			log, err := logging.New(logLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			return server.New(roots, log).ListenAndServe(cmd.Context(), bind)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().StringSliceVar(&roots, "root", nil, "Directory to advertise log files from (repeatable)")
	return cmd
}
