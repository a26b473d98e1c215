package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zeebo/xxh3"

	"github.com/autodeployr/flask-analyzer/internal/descriptor"
	"github.com/autodeployr/flask-analyzer/internal/fqn"
)

// StoredFunction is one extracted function as persisted, with its
// run-scoped qualified name and content hash alongside the descriptor
// fields.
type StoredFunction struct {
	ID                int64                         `json:"id"`
	RunID             int64                         `json:"run_id"`
	Name              string                        `json:"name"`
	QualifiedName     string                        `json:"qualified_name"`
	Path              string                        `json:"path"`
	Methods           []string                      `json:"methods"`
	Source            string                        `json:"source"`
	SourceHash        string                        `json:"source_hash"`
	AppName           string                        `json:"app_name"`
	Dependencies      []string                      `json:"dependencies"`
	DependencySources map[string]string             `json:"dependency_sources"`
	Imports           []descriptor.ImportDefinition `json:"imports"`
	EnvVars           []string                      `json:"env_vars"`
	FilePath          string                        `json:"file_path"`
	LineNumber        int                           `json:"line_number"`
	RequiresDB        bool                          `json:"requires_db"`
}

func (s *Store) insertFunction(runID int64, project string, fn *descriptor.ServerlessFunction) error {
	qualified := fqn.Compute(project, fn.FilePath, fn.Name)
	sourceHash := fmt.Sprintf("%016x", xxh3.Hash([]byte(fn.Source)))

	requiresDB := 0
	if fn.RequiresDB {
		requiresDB = 1
	}
	_, err := s.q.Exec(
		`INSERT INTO functions (run_id, name, qualified_name, path, methods, source, source_hash,
		   app_name, dependencies, dependency_sources, imports, env_vars, file_path, line_number, requires_db)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, fn.Name, qualified, fn.Path,
		jsonText(fn.Methods, "[]"), fn.Source, sourceHash, fn.AppName,
		jsonText(fn.Dependencies, "[]"), jsonText(fn.DependencySources, "{}"),
		jsonText(fn.Imports, "[]"), jsonText(fn.EnvVars, "[]"),
		fn.FilePath, fn.LineNumber, requiresDB,
	)
	if err != nil {
		return fmt.Errorf("insert function %s: %w", fn.Name, err)
	}
	return nil
}

const functionColumns = `id, run_id, name, qualified_name, path, methods, source, source_hash,
	app_name, dependencies, dependency_sources, imports, env_vars, file_path, line_number, requires_db`

// FunctionsByRun returns every function of a run in insertion order.
func (s *Store) FunctionsByRun(runID int64) ([]StoredFunction, error) {
	rows, err := s.q.Query(
		`SELECT `+functionColumns+` FROM functions WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("functions by run: %w", err)
	}
	defer rows.Close()

	var fns []StoredFunction
	for rows.Next() {
		fn, err := scanFunction(rows)
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}
	return fns, rows.Err()
}

// FindFunction looks one function up within a run by bare or qualified
// name. It returns nil when the run holds no match.
func (s *Store) FindFunction(runID int64, name string) (*StoredFunction, error) {
	rows, err := s.q.Query(
		`SELECT `+functionColumns+` FROM functions
		 WHERE run_id = ? AND (name = ? OR qualified_name = ?) ORDER BY id LIMIT 1`,
		runID, name, name)
	if err != nil {
		return nil, fmt.Errorf("find function: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, nil
	}
	fn, err := scanFunction(rows)
	if err != nil {
		return nil, err
	}
	return &fn, nil
}

func scanFunction(rows *sql.Rows) (StoredFunction, error) {
	var fn StoredFunction
	var methods, deps, depSources, imports, envVars string
	var requiresDB int
	if err := rows.Scan(&fn.ID, &fn.RunID, &fn.Name, &fn.QualifiedName, &fn.Path,
		&methods, &fn.Source, &fn.SourceHash, &fn.AppName,
		&deps, &depSources, &imports, &envVars,
		&fn.FilePath, &fn.LineNumber, &requiresDB); err != nil {
		return fn, err
	}
	fn.Methods = unmarshalStrings(methods)
	fn.Dependencies = unmarshalStrings(deps)
	fn.DependencySources = unmarshalStringMap(depSources)
	fn.Imports = unmarshalImports(imports)
	fn.EnvVars = unmarshalStrings(envVars)
	fn.RequiresDB = requiresDB != 0
	return fn, nil
}

func unmarshalStrings(data string) []string {
	out := []string{}
	if data == "" {
		return out
	}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return []string{}
	}
	return out
}

func unmarshalStringMap(data string) map[string]string {
	out := map[string]string{}
	if data == "" {
		return out
	}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return map[string]string{}
	}
	return out
}

func unmarshalImports(data string) []descriptor.ImportDefinition {
	out := []descriptor.ImportDefinition{}
	if data == "" {
		return out
	}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return []descriptor.ImportDefinition{}
	}
	return out
}
