package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/autodeployr/flask-analyzer/internal/tools"
)

func serveCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Serve starts a Model Context Protocol server on stdio transport.

The server exposes the analyzer as tools an AI agent can invoke:
  - analyze_application: Extract route descriptors from a Flask app
  - analyze_file: Analyze a single Python file
  - fix_methods, fix_directory: Quote bare HTTP method lists
  - list_runs, get_function: Query saved analysis runs`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			st, err := openStore(dbPath)
			if err != nil {
				return err
			}

			srv := tools.NewServer(st)
			runErr := srv.MCPServer().Run(cobraCmd.Context(), &mcp.StdioTransport{})
			st.Close()
			return runErr
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "runs database path (default: ~/.cache/flask-analyzer/runs.db)")

	return cmd
}
