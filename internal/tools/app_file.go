package tools

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/autodeployr/flask-analyzer/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleReadAppFile(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	relPath := getStringArg(args, "path")
	if relPath == "" {
		return errResult("path is required"), nil
	}
	if filepath.IsAbs(relPath) {
		return errResult("path must be relative to the application root"), nil
	}

	startLine := getIntArg(args, "start_line", 0)
	endLine := getIntArg(args, "end_line", 0)

	root, err := s.resolveRunRoot(int64(getIntArg(args, "run_id", 0)))
	if err != nil {
		return errResult(err.Error()), nil
	}

	absPath := filepath.Join(root, relPath)
	rel, err := filepath.Rel(root, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errResult("path escapes the application root"), nil
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return errResult(fmt.Sprintf("file not found: %s", relPath)), nil
	}
	if info.IsDir() {
		return errResult("path is a directory"), nil
	}

	// Cap file size at 500KB
	if info.Size() > 500*1024 {
		return errResult(fmt.Sprintf("file too large (%d bytes, max 500KB). Use start_line/end_line to read a portion", info.Size())), nil
	}

	f, err := os.Open(absPath)
	if err != nil {
		return errResult(fmt.Sprintf("open: %v", err)), nil
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024) // 1MB line buffer
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if startLine > 0 && lineNum < startLine {
			continue
		}
		if endLine > 0 && lineNum > endLine {
			break
		}
		line := scanner.Text()
		if len(line) > 500 {
			line = line[:500] + "..."
		}
		lines = append(lines, fmt.Sprintf("%4d | %s", lineNum, line))
	}

	if err := scanner.Err(); err != nil {
		return errResult(fmt.Sprintf("read: %v", err)), nil
	}

	result := map[string]any{
		"path":        relPath,
		"total_lines": lineNum,
		"content":     strings.Join(lines, "\n"),
	}
	if startLine > 0 || endLine > 0 {
		result["range"] = fmt.Sprintf("%d-%d", startLine, endLine)
	}

	return jsonResult(result), nil
}

// resolveRunRoot returns the application root of a saved run. A zero id
// means the latest run. Single-file runs resolve to the file's directory.
func (s *Server) resolveRunRoot(runID int64) (string, error) {
	var run *store.Run
	var err error
	if runID == 0 {
		run, err = s.store.LatestRun()
	} else {
		run, err = s.store.GetRun(runID)
	}
	if err != nil {
		return "", err
	}
	if run == nil {
		return "", fmt.Errorf("no saved run; call analyze_application with save=true first")
	}

	root := run.AppPath
	if info, statErr := os.Stat(root); statErr == nil && !info.IsDir() {
		root = filepath.Dir(root)
	}
	return root, nil
}
