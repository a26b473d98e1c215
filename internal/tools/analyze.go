package tools

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/autodeployr/flask-analyzer/internal/config"
	"github.com/autodeployr/flask-analyzer/internal/descriptor"
	"github.com/autodeployr/flask-analyzer/internal/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleAnalyzeApplication(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	appPath := getStringArg(args, "app_path")
	if appPath == "" {
		return errResult("app_path is required"), nil
	}

	absPath, err := filepath.Abs(appPath)
	if err != nil {
		return errResult(fmt.Sprintf("invalid path: %v", err)), nil
	}

	// Lock to prevent concurrent analysis runs from interleaving saves
	s.analyzeMu.Lock()
	defer s.analyzeMu.Unlock()

	cfg := config.Load(absPath)
	result, err := pipeline.Analyze(ctx, absPath, cfg)
	if err != nil {
		return errResult(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	return s.analysisResult(absPath, result, getBoolArg(args, "save"))
}

func (s *Server) handleAnalyzeFile(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	s.analyzeMu.Lock()
	defer s.analyzeMu.Unlock()

	cfg := config.Load(filepath.Dir(absPath))
	result, err := pipeline.AnalyzeFile(ctx, absPath, cfg)
	if err != nil {
		return errResult(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	return s.analysisResult(absPath, result, getBoolArg(args, "save"))
}

// analysisResult renders an analysis outcome, optionally persisting it first.
func (s *Server) analysisResult(appPath string, result *descriptor.AnalysisResult, save bool) (*mcp.CallToolResult, error) {
	if !save {
		return jsonResult(result), nil
	}
	runID, err := s.store.SaveRun(appPath, result)
	if err != nil {
		return errResult(fmt.Sprintf("save failed: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"run_id": runID,
		"result": result,
	}), nil
}
