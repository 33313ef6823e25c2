// Command voyager is the engine's entry point: a single cobra root
// command with one long-running "start" subcommand, in the manner of
// the teacher's e2e/interchaintestv8/cmd.RootCmd() wiring one command
// per cobra.Command and deferring the real work to RunE.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := RootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "voyager: %v\n", err)
		os.Exit(1)
	}
}

// RootCmd assembles the voyager CLI.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "voyager",
		Short: "Voyager IBC relayer message-queue engine",
	}
	root.AddCommand(StartCmd())
	return root
}
