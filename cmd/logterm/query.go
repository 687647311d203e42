package main

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/architect-xyz/logterm/internal/config"
	"github.com/architect-xyz/logterm/internal/query"
	"github.com/architect-xyz/logterm/internal/render"
)

func newQueryCommand() *cobra.Command {
	var cols int
	var filter string
	var from, to int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "query <log-file>",
		Short: "Scan a log file and print its display lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cols == 0 {
				cols = cfg.Display.Cols
			}

			var re *regexp.Regexp
			if filter != "" {
				re, err = regexp.Compile(filter)
				if err != nil {
					return fmt.Errorf("compile filter: %w", err)
				}
			}

			res, err := query.Scan(args[0], cols, re)
			if err != nil {
				return err
			}

			var toPtr *int
			if cmd.Flags().Changed("to") {
				toPtr = &to
			}
			ranged := res.Range(from, toPtr)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				for _, line := range ranged.DisplayLines {
					if err := enc.Encode(line); err != nil {
						return err
					}
				}
				return nil
			}

			renderer := render.NewSpanRenderer(cfg)
			for _, line := range ranged.DisplayLines {
				fmt.Fprintln(cmd.OutOrStdout(), renderer.Render(line))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&cols, "cols", 0, "Wrap width in terminal cells (default from config)")
	cmd.Flags().StringVar(&filter, "filter", "", "Only show lines matching this regex")
	cmd.Flags().IntVar(&from, "from", 0, "First display row to print")
	cmd.Flags().IntVar(&to, "to", 0, "Row to stop before (default: end)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print rows as JSON instead of styled text")
	return cmd
}
