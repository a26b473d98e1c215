package tools

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/autodeployr/flask-analyzer/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is the advertised server version.
const Version = "0.3.0"

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp   *mcp.Server
	store *store.Store

	// analyzeMu serializes analysis runs so concurrent tool calls do not
	// race on parser pool warmup and run persistence.
	analyzeMu sync.Mutex
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(s *store.Store) *Server {
	srv := &Server{
		store: s,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "flask-analyzer",
				Version: Version,
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	// 1. analyze_application
	s.mcp.AddTool(&mcp.Tool{
		Name:        "analyze_application",
		Description: "Analyze a Flask application directory. Walks the tree, finds Flask app and Blueprint route handlers, and returns one serverless function descriptor per route with source, transitive helper dependencies, sliced imports, environment variables, and a database-usage flag.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"app_path": {
					"type": "string",
					"description": "Path to the Flask application root directory"
				},
				"save": {
					"type": "boolean",
					"description": "Persist the result as a run for later lookup (default: false)"
				}
			},
			"required": ["app_path"]
		}`),
	}, s.handleAnalyzeApplication)

	// 2. analyze_file
	s.mcp.AddTool(&mcp.Tool{
		Name:        "analyze_file",
		Description: "Analyze a single Python source file as a self-contained Flask application. Returns the same serverless function descriptors as analyze_application, scoped to the one file.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"file_path": {
					"type": "string",
					"description": "Path to the Python file to analyze"
				},
				"save": {
					"type": "boolean",
					"description": "Persist the result as a run for later lookup (default: false)"
				}
			},
			"required": ["file_path"]
		}`),
	}, s.handleAnalyzeFile)

	// 3. fix_methods
	s.mcp.AddTool(&mcp.Tool{
		Name:        "fix_methods",
		Description: "Rewrite unquoted HTTP method lists in a Python file, turning methods=[GET, POST] into methods=['GET', 'POST']. Writes a .bak backup next to the file before modifying it.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"file_path": {
					"type": "string",
					"description": "Path to the Python file to fix"
				}
			},
			"required": ["file_path"]
		}`),
	}, s.handleFixMethods)

	// 4. fix_directory
	s.mcp.AddTool(&mcp.Tool{
		Name:        "fix_directory",
		Description: "Apply the fix_methods rewrite to every Python file under a directory, skipping virtualenv, VCS, and cache directories. Returns the list of files that changed.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "Directory to fix recursively"
				}
			},
			"required": ["path"]
		}`),
	}, s.handleFixDirectory)

	// 5. list_runs
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_runs",
		Description: "List saved analysis runs, newest first, with app path, app name, function count, result hash, and timestamp.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"limit": {
					"type": "integer",
					"description": "Maximum number of runs to return (default 20)"
				}
			}
		}`),
	}, s.handleListRuns)

	// 6. get_function
	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_function",
		Description: "Fetch one stored function descriptor by name or qualified name. Defaults to the most recent saved run unless run_id is given.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {
					"type": "string",
					"description": "Function name (e.g. 'get_user') or qualified name (e.g. 'app.api.users.get_user')"
				},
				"run_id": {
					"type": "integer",
					"description": "Run to search. Omit to use the latest saved run."
				}
			},
			"required": ["name"]
		}`),
	}, s.handleGetFunction)

	// 7. search_functions
	s.mcp.AddTool(&mcp.Tool{
		Name:        "search_functions",
		Description: "Search stored function descriptors with structured filters: name regex, route/file path glob, HTTP method, and database flag. Returns summaries with pagination; use get_function for the full descriptor.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"run_id": {
					"type": "integer",
					"description": "Run to search. Omit to use the latest saved run."
				},
				"name_pattern": {
					"type": "string",
					"description": "Regex for function name or qualified name (e.g. '.*_user', 'get_.*')"
				},
				"path_glob": {
					"type": "string",
					"description": "Glob for the route path or file path (e.g. '/users/*', '**/api/**')"
				},
				"method": {
					"type": "string",
					"description": "Keep only handlers of this HTTP method (e.g. 'POST')"
				},
				"requires_db": {
					"type": "boolean",
					"description": "Keep only handlers with (true) or without (false) database access"
				},
				"limit": {
					"type": "integer",
					"description": "Max results (default 10)"
				},
				"offset": {
					"type": "integer",
					"description": "Results to skip for pagination"
				}
			}
		}`),
	}, s.handleSearchFunctions)

	// 8. read_app_file
	s.mcp.AddTool(&mcp.Tool{
		Name:        "read_app_file",
		Description: "Read a source file from a saved run's application, addressed by the relative file_path carried in function descriptors. Supports line range selection for large files.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "File path relative to the application root (e.g. a descriptor's file_path)"
				},
				"run_id": {
					"type": "integer",
					"description": "Run whose application to read from. Omit to use the latest saved run."
				},
				"start_line": {
					"type": "integer",
					"description": "Start reading from this line (1-based, optional)"
				},
				"end_line": {
					"type": "integer",
					"description": "Stop reading at this line (inclusive, optional)"
				}
			},
			"required": ["path"]
		}`),
	}, s.handleReadAppFile)
}

// jsonResult marshals data to JSON and returns as tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if req.Params.Arguments == nil || len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

// getStringArg extracts a string argument from parsed args.
func getStringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// getIntArg extracts an integer argument with a default value.
func getIntArg(args map[string]any, key string, defaultVal int) int {
	v, ok := args[key]
	if !ok {
		return defaultVal
	}
	f, ok := v.(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}

// getBoolArg extracts a boolean argument from parsed args.
func getBoolArg(args map[string]any, key string) bool {
	v, ok := args[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		return false
	}
	return b
}
