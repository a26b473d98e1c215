package store

import (
	"fmt"
	"regexp"
	"strings"
)

// SearchParams defines structured search parameters over stored functions.
type SearchParams struct {
	// RunID scopes the search. Zero means the latest saved run.
	RunID int64
	// NamePattern is a regex matched against name and qualified name.
	NamePattern string
	// PathGlob is a glob matched against the route path and file path.
	PathGlob string
	// Method keeps only functions handling this HTTP method.
	Method string
	// RequiresDB filters on the database flag when non-nil.
	RequiresDB *bool
	Limit      int
	Offset     int
}

// SearchOutput wraps search results with the total count for pagination.
type SearchOutput struct {
	RunID   int64
	Results []StoredFunction
	Total   int
}

// SearchFunctions executes a parameterized search over one run's stored
// functions. SQL narrows by run, path and database flag; the regex and
// method filters run on the decoded rows.
func (s *Store) SearchFunctions(params SearchParams) (*SearchOutput, error) {
	runID := params.RunID
	if runID == 0 {
		latest, err := s.LatestRun()
		if err != nil {
			return nil, err
		}
		if latest == nil {
			return &SearchOutput{Results: []StoredFunction{}}, nil
		}
		runID = latest.ID
	}

	conditions := []string{"run_id = ?"}
	args := []any{runID}

	if params.PathGlob != "" {
		like := globToLike(params.PathGlob)
		conditions = append(conditions, "(path LIKE ? OR file_path LIKE ?)")
		args = append(args, like, like)
	}
	if params.RequiresDB != nil {
		flag := 0
		if *params.RequiresDB {
			flag = 1
		}
		conditions = append(conditions, "requires_db = ?")
		args = append(args, flag)
	}

	query := fmt.Sprintf(`SELECT %s FROM functions WHERE %s ORDER BY id`,
		functionColumns, strings.Join(conditions, " AND "))

	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search functions: %w", err)
	}
	defer rows.Close()

	var fns []StoredFunction
	for rows.Next() {
		fn, scanErr := scanFunction(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		fns = append(fns, fn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if params.NamePattern != "" {
		fns, err = filterByNamePattern(fns, params.NamePattern)
		if err != nil {
			return nil, err
		}
	}
	if params.Method != "" {
		fns = filterByMethod(fns, params.Method)
	}

	total := len(fns)

	start := params.Offset
	if start > total {
		start = total
	}
	end := total
	if params.Limit > 0 && start+params.Limit < total {
		end = start + params.Limit
	}

	return &SearchOutput{
		RunID:   runID,
		Results: fns[start:end],
		Total:   total,
	}, nil
}

// globToLike converts a glob pattern to a SQL LIKE pattern.
func globToLike(pattern string) string {
	result := strings.ReplaceAll(pattern, "**", "%")
	result = strings.ReplaceAll(result, "*", "%")
	result = strings.ReplaceAll(result, "?", "_")
	return result
}

// filterByNamePattern keeps functions whose name or qualified name
// matches the regex pattern.
func filterByNamePattern(fns []StoredFunction, pattern string) ([]StoredFunction, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid name pattern: %w", err)
	}
	var filtered []StoredFunction
	for _, fn := range fns {
		if re.MatchString(fn.Name) || re.MatchString(fn.QualifiedName) {
			filtered = append(filtered, fn)
		}
	}
	return filtered, nil
}

// filterByMethod keeps functions that handle the given HTTP method.
func filterByMethod(fns []StoredFunction, method string) []StoredFunction {
	var filtered []StoredFunction
	for _, fn := range fns {
		for _, m := range fn.Methods {
			if strings.EqualFold(m, method) {
				filtered = append(filtered, fn)
				break
			}
		}
	}
	return filtered
}
