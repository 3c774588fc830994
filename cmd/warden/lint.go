package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tessera-hq/warden/pkg/cli"
	"tessera-hq/warden/pkg/policy"
)

var lintFlags struct {
	file   string
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate policy documents without loading them",
	Long: `Validate one policy document against the schema and report every
violation. The document is never persisted.

Examples:
  warden lint --file policies/au-compliance.json
  warden lint --file policies/au-compliance.json --format json`,
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)
	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "policy document to validate (required)")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format (text, json)")
	lintCmd.MarkFlagRequired("file")
}

type lintReport struct {
	File   string                   `json:"file"`
	Valid  bool                     `json:"valid"`
	Errors []policy.ValidationIssue `json:"errors"`
}

func runLint(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(lintFlags.file)
	if err != nil {
		return cli.NewCommandError("lint", err)
	}

	var pol policy.Policy
	if err := json.Unmarshal(data, &pol); err != nil {
		return cli.NewCommandError("lint", fmt.Errorf("parse %s: %w", lintFlags.file, err))
	}

	issues := policy.ValidatePolicy(&pol)
	report := lintReport{
		File:   lintFlags.file,
		Valid:  len(issues) == 0,
		Errors: issues,
	}
	if report.Errors == nil {
		report.Errors = []policy.ValidationIssue{}
	}

	formatter := cli.NewFormatter(cli.OutputFormat(lintFlags.format))
	if _, ok := formatter.(*cli.JSONFormatter); ok {
		if err := formatter.FormatTo(os.Stdout, report); err != nil {
			return err
		}
	} else {
		if report.Valid {
			fmt.Printf("✓ %s is valid (%d rules)\n", lintFlags.file, len(pol.Rules))
		} else {
			fmt.Printf("✗ %s has %d problems:\n", lintFlags.file, len(report.Errors))
			for _, issue := range report.Errors {
				fmt.Printf("  - %s: %s\n", issue.Field, issue.Message)
			}
		}
	}

	if !report.Valid {
		return cli.NewCommandError("lint", fmt.Errorf("%d validation problems", len(report.Errors)))
	}
	return nil
}
