// logterm serves structured log files to terminal clients: a
// websocket server for queries and live tails, plus local commands to
// query, follow, and generate logs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "logterm",
		Short:         "Log viewer server and terminal client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		newServeCommand(),
		newQueryCommand(),
		newFollowCommand(),
		newBabbleCommand(),
		newVersionCommand(),
	)
	return cmd
}
