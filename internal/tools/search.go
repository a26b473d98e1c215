package tools

import (
	"context"
	"fmt"

	"github.com/autodeployr/flask-analyzer/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleSearchFunctions(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	params := store.SearchParams{
		RunID:       int64(getIntArg(args, "run_id", 0)),
		NamePattern: getStringArg(args, "name_pattern"),
		PathGlob:    getStringArg(args, "path_glob"),
		Method:      getStringArg(args, "method"),
		Limit:       getIntArg(args, "limit", 10),
		Offset:      getIntArg(args, "offset", 0),
	}
	if v, ok := args["requires_db"]; ok {
		if b, ok := v.(bool); ok {
			params.RequiresDB = &b
		}
	}

	output, err := s.store.SearchFunctions(params)
	if err != nil {
		return errResult(fmt.Sprintf("search: %v", err)), nil
	}

	type resultEntry struct {
		Name          string   `json:"name"`
		QualifiedName string   `json:"qualified_name"`
		Path          string   `json:"path"`
		Methods       []string `json:"methods"`
		FilePath      string   `json:"file_path"`
		LineNumber    int      `json:"line_number"`
		RequiresDB    bool     `json:"requires_db"`
	}

	results := make([]resultEntry, 0, len(output.Results))
	for _, fn := range output.Results {
		results = append(results, resultEntry{
			Name:          fn.Name,
			QualifiedName: fn.QualifiedName,
			Path:          fn.Path,
			Methods:       fn.Methods,
			FilePath:      fn.FilePath,
			LineNumber:    fn.LineNumber,
			RequiresDB:    fn.RequiresDB,
		})
	}

	return jsonResult(map[string]any{
		"run_id":   output.RunID,
		"total":    output.Total,
		"limit":    params.Limit,
		"offset":   params.Offset,
		"has_more": params.Offset+params.Limit < output.Total,
		"results":  results,
	}), nil
}
