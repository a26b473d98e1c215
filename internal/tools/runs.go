package tools

import (
	"context"
	"fmt"

	"github.com/autodeployr/flask-analyzer/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleListRuns(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	limit := getIntArg(args, "limit", 20)
	runs, err := s.store.ListRuns(limit)
	if err != nil {
		return errResult(fmt.Sprintf("list runs: %v", err)), nil
	}
	if runs == nil {
		runs = []store.Run{}
	}

	return jsonResult(runs), nil
}

func (s *Server) handleGetFunction(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	name := getStringArg(args, "name")
	if name == "" {
		return errResult("name is required"), nil
	}

	runID := int64(getIntArg(args, "run_id", 0))
	if runID == 0 {
		latest, latestErr := s.store.LatestRun()
		if latestErr != nil {
			return errResult(fmt.Sprintf("latest run: %v", latestErr)), nil
		}
		if latest == nil {
			return errResult("no saved runs; call analyze_application with save=true first"), nil
		}
		runID = latest.ID
	}

	fn, err := s.store.FindFunction(runID, name)
	if err != nil {
		return errResult(fmt.Sprintf("find function: %v", err)), nil
	}
	if fn == nil {
		return errResult(fmt.Sprintf("function not found in run %d: %s", runID, name)), nil
	}

	return jsonResult(fn), nil
}
