package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	trackermcp "github.com/ajitpratap0/tech-tracker/internal/mcp"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP (Model Context Protocol) server over stdio",
		Long: `Starts an MCP JSON-RPC 2.0 server that reads from stdin and writes to stdout.
All diagnostic logs go to stderr so that stdout remains exclusively MCP protocol traffic.

Tools exposed:
  list          list technologies, filtered by status and category
  search        substring search over title, description and language
  stats         progress statistics and category breakdown
  set_status    set the status of a technology
  cycle_status  advance a technology to its next status
  set_notes     replace the notes of a technology
  add           add a technology
  delete        delete a technology
  random_pick   pick the next thing to learn and mark it in progress`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()

			cat, st, err := openCatalog(cmd.Context(), catalogName, logger)
			if err != nil {
				return fmt.Errorf("mcp: %w", err)
			}
			defer func() { _ = st.Close() }()

			srv := trackermcp.NewServer(cat, version, logger)

			// Use a standard log.Logger pointing at stderr for the mcp-go error logger.
			errLogger := log.New(os.Stderr, "mcp: ", log.LstdFlags)

			logger.Info("mcp: tech-tracker MCP server starting", "transport", "stdio", "catalog", cat.Key())

			return mcpserver.ServeStdio(
				srv.MCPServer(),
				mcpserver.WithErrorLogger(errLogger),
			)
		},
	}

	return cmd
}
