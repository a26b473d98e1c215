package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/zeebo/xxh3"

	"github.com/autodeployr/flask-analyzer/internal/descriptor"
)

// Run is one persisted analysis of an application.
type Run struct {
	ID            int64  `json:"id"`
	AppPath       string `json:"app_path"`
	AppName       string `json:"app_name"`
	Language      string `json:"language"`
	Framework     string `json:"framework"`
	ResultHash    string `json:"result_hash"`
	FunctionCount int    `json:"function_count"`
	CreatedAt     string `json:"created_at"`
}

// SaveRun stores one analysis result and all of its functions in a
// single transaction and returns the new run id.
func (s *Store) SaveRun(appPath string, result *descriptor.AnalysisResult) (int64, error) {
	blob, err := result.JSON()
	if err != nil {
		return 0, fmt.Errorf("encode result: %w", err)
	}
	hash := fmt.Sprintf("%016x", xxh3.Hash(blob))

	var runID int64
	err = s.WithTransaction(func(tx *Store) error {
		res, err := tx.q.Exec(
			`INSERT INTO runs (app_path, app_name, language, framework, result_hash, function_count, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			appPath, result.AppName, result.Language, result.Framework, hash, len(result.Functions), Now(),
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		runID, err = res.LastInsertId()
		if err != nil {
			return err
		}
		for _, fn := range result.Functions {
			if err := tx.insertFunction(runID, result.AppName, fn); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return runID, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means
// no limit.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	query := `SELECT id, app_path, app_name, language, framework, result_hash, function_count, created_at
	          FROM runs ORDER BY id DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.q.Query(query+" LIMIT ?", limit)
	} else {
		rows, err = s.q.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.AppPath, &r.AppName, &r.Language, &r.Framework,
			&r.ResultHash, &r.FunctionCount, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns one run by id, or nil when it does not exist.
func (s *Store) GetRun(id int64) (*Run, error) {
	return s.scanRun(s.q.QueryRow(
		`SELECT id, app_path, app_name, language, framework, result_hash, function_count, created_at
		 FROM runs WHERE id = ?`, id))
}

// LatestRun returns the most recent run, or nil when the store is empty.
func (s *Store) LatestRun() (*Run, error) {
	return s.scanRun(s.q.QueryRow(
		`SELECT id, app_path, app_name, language, framework, result_hash, function_count, created_at
		 FROM runs ORDER BY id DESC LIMIT 1`))
}

func (s *Store) scanRun(row *sql.Row) (*Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.AppPath, &r.AppName, &r.Language, &r.Framework,
		&r.ResultHash, &r.FunctionCount, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteRun removes a run; its functions cascade away with it.
func (s *Store) DeleteRun(id int64) error {
	_, err := s.q.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}
