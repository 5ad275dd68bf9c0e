package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/swish/internal/ipc"
	"github.com/1broseidon/swish/internal/logx"
	"github.com/1broseidon/swish/internal/mcp"
)

func newMCPCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Model Context Protocol integration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio transport)",
		Long: `Start the MCP server on stdio. It forwards tool calls to the running
daemon, so start "swish daemon" first.

Example:
  claude mcp add swish -- swish mcp serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := root.logger(nil)
			logx.RedirectStdLog(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return mcp.NewServer(ipc.NewClient(), logx.WithComponent(logger, "mcp")).Run(ctx)
		},
	})
	return cmd
}
