// Package cli wires the facetrial subcommands.
package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// Execute runs the CLI.
func Execute() error {
	root := silenceUsageAndErrors(&cobra.Command{
		Use:   "facetrial",
		Short: "Compile, run, and summarize a 2AFC face categorization experiment.",
	})

	root.AddCommand(newCompileCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newSummaryCmd())

	executed, err := root.ExecuteC()
	if err != nil {
		maybePrintUsage(executed, root, err)
	}
	return err
}

func silenceUsageAndErrors(cmd *cobra.Command) *cobra.Command {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd
}

func maybePrintUsage(cmd, root *cobra.Command, err error) {
	if err == nil {
		return
	}
	target := cmd
	if target == nil {
		target = root
	}
	if target == nil {
		return
	}
	if shouldShowUsage(err) {
		_ = target.Usage()
	}
}

// shouldShowUsage distinguishes CLI misuse (show usage) from operational
// failures (just the error).
func shouldShowUsage(err error) bool {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.HasPrefix(msg, "unknown command"),
		strings.HasPrefix(msg, "unknown flag"),
		strings.HasPrefix(msg, "unknown shorthand flag"),
		strings.HasPrefix(msg, "invalid argument"),
		strings.Contains(msg, "required flag"),
		strings.Contains(msg, "flag needs an argument"):
		return true
	case strings.Contains(msg, "accepts") && strings.Contains(msg, "arg"),
		strings.Contains(msg, "requires at least") && strings.Contains(msg, "arg"):
		return true
	}
	return false
}
