package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/architect-xyz/logterm/internal/babble"
)

func newBabbleCommand() *cobra.Command {
	var lines int
	var out string
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "babble",
		Short: "Generate test log lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			g := babble.New(time.Now().UnixNano())

			if out == "" {
				return g.WriteLines(cmd.OutOrStdout(), lines, time.Now)
			}

			f, err := os.OpenFile(out, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
			if err != nil {
				return err
			}
			defer f.Close()

			if interval <= 0 {
				return g.WriteLines(f, lines, time.Now)
			}

			// Drip lines into the file so a tail has something to chew
			// on. Stops on count or interrupt, whichever comes first.
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for i := 0; i < lines; i++ {
				select {
				case <-cmd.Context().Done():
					return nil
				case <-ticker.C:
				}
				if _, err := fmt.Fprintln(f, g.Line(time.Now())); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 100, "Number of lines to generate")
	cmd.Flags().StringVar(&out, "out", "", "Append to this file instead of stdout")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Delay between lines (requires --out)")
	return cmd
}
