package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "courier",
	Short: "Courier - read-only chat message relay",
	Long: `Courier is a small HTTP relay in front of a chat platform's message API.

It holds the bot credential server-side and exposes a read-only JSON surface
for browser clients:
  - Recent channel messages, normalized and briefly cached
  - Registration lookups over a channel's recent history
  - Permissive CORS so static frontends can call it directly`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
