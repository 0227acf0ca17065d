// Package main provides the entry point for the rector CLI tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/petski/rector-src/cmd/rector/commands"
	"github.com/petski/rector-src/pkg/version"
)

// exitChangesPending is the exit code for dry runs that found rewrites.
const exitChangesPending = 2

func main() {
	rootCmd := &cobra.Command{
		Use:   "rector",
		Short: "Rector - rule-driven source code rewriting",
		Long: `Rector applies configured transformation rules to source files and
reports or writes the resulting changes.

Commands:
  process     Rewrite the files under the given paths
  list-rules  Show the registered rules
  init        Write a starter configuration file
  mcp         Start MCP server for AI agent integration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewProcessCommand())
	rootCmd.AddCommand(commands.NewListRulesCommand())
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(commands.NewMCPCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if errors.Is(err, commands.ErrChangesPending) {
		os.Exit(exitChangesPending)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "rector %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
