package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "warden",
	Short: "Warden - policy decision and model-routing gateway for LLM traffic",
	Long: `Warden evaluates LLM requests against declarative policy rules, routes
executable decisions to governed model pools, and records every decision in a
tamper-evident audit chain.

It exposes an HTTP surface for decision evaluation, override execution,
policy administration, audit inspection, and route management.`,
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
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
