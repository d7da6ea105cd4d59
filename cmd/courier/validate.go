package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"relaywire/courier/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file, apply defaults and environment overrides,
and report whether the result is valid.

A missing bot token is not a validation error; the server starts without one
and rejects requests that need it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			return fmt.Errorf("configuration invalid: %w", err)
		}

		fmt.Println("✓ Configuration valid")
		fmt.Printf("  listen address: %s\n", cfg.Proxy.ListenAddress)
		fmt.Printf("  upstream:       %s\n", cfg.Upstream.BaseURL)
		fmt.Printf("  cache backend:  %s (ttl %s)\n", cfg.Cache.Backend, cfg.Cache.TTL)
		if cfg.Upstream.Token == "" && cfg.Upstream.TokenFile == "" {
			fmt.Println("  note: no bot token configured; requests will be rejected")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
