package tools

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/autodeployr/flask-analyzer/internal/fixer"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleFixMethods(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	filePath := getStringArg(args, "file_path")
	if filePath == "" {
		return errResult("file_path is required"), nil
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return errResult(fmt.Sprintf("invalid path: %v", err)), nil
	}

	changed, err := fixer.FixMethods(absPath)
	if err != nil {
		return errResult(fmt.Sprintf("fix failed: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"file":    absPath,
		"changed": changed,
	}), nil
}

func (s *Server) handleFixDirectory(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	path := getStringArg(args, "path")
	if path == "" {
		return errResult("path is required"), nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errResult(fmt.Sprintf("invalid path: %v", err)), nil
	}

	fixed, err := fixer.FixDirectory(absPath)
	if err != nil {
		return errResult(fmt.Sprintf("fix failed: %v", err)), nil
	}
	if fixed == nil {
		fixed = []string{}
	}

	return jsonResult(map[string]any{
		"fixed": fixed,
		"count": len(fixed),
	}), nil
}
