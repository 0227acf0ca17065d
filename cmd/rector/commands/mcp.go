package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/petski/rector-src/internal/mcp"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server exposes the rewrite engine as tools that AI agents can discover
and invoke:
  - rector_preview: run configured rules over paths and return unified diffs
  - rector_list_rules: list the registered rules and their configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			srv := mcp.NewServer(mcp.ServerDeps{Logger: logger})

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&verbose, "verbose", false, "Enable debug logging to stderr")

	return cmd
}
