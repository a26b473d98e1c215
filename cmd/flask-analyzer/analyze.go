package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/autodeployr/flask-analyzer/internal/config"
	"github.com/autodeployr/flask-analyzer/internal/descriptor"
	"github.com/autodeployr/flask-analyzer/internal/fixer"
	"github.com/autodeployr/flask-analyzer/internal/pipeline"
	"github.com/autodeployr/flask-analyzer/internal/store"
)

func analyzeCmd() *cobra.Command {
	var output, dbPath string
	var noFix, save bool

	cmd := &cobra.Command{
		Use:   "analyze <path>",
		Short: "Analyze a Flask application directory or a single Python file",
		Long: `Analyze extracts every Flask route under the given path into a
serverless function descriptor and prints the result as JSON.

Examples:
  flask-analyzer analyze ./myapp                 # Analyze a directory
  flask-analyzer analyze app.py                  # Analyze one file
  flask-analyzer analyze ./myapp -o result.json  # Write to a file
  flask-analyzer analyze ./myapp --save          # Persist as a run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), args[0], analyzeOptions{
				output: output,
				noFix:  noFix,
				save:   save,
				dbPath: dbPath,
			}, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result to this file instead of stdout")
	cmd.Flags().BoolVar(&noFix, "no-fix", false, "skip the method-list rewrite on the output file")
	cmd.Flags().BoolVar(&save, "save", false, "persist the result as a run")
	cmd.Flags().StringVar(&dbPath, "db", "", "runs database path (default: ~/.cache/flask-analyzer/runs.db)")

	return cmd
}

type analyzeOptions struct {
	output string
	noFix  bool
	save   bool
	dbPath string
}

func runAnalyze(ctx context.Context, path string, opts analyzeOptions, stdout io.Writer) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		fmt.Fprintln(stdout, string(descriptor.ErrorJSON(err)))
		return err
	}

	var result *descriptor.AnalysisResult
	if info.IsDir() {
		result, err = pipeline.Analyze(ctx, absPath, config.Load(absPath))
	} else {
		result, err = pipeline.AnalyzeFile(ctx, absPath, config.Load(filepath.Dir(absPath)))
	}
	if err != nil {
		fmt.Fprintln(stdout, string(descriptor.ErrorJSON(err)))
		return err
	}

	if opts.save {
		if err := saveRun(absPath, result, opts.dbPath); err != nil {
			return err
		}
	}

	blob, err := result.JSON()
	if err != nil {
		return err
	}

	if opts.output == "" {
		fmt.Fprintln(stdout, string(blob))
		return nil
	}

	if err := os.WriteFile(opts.output, blob, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Embedded handler sources can carry unquoted method lists from the
	// application under analysis into the artifact. Rewrite them so the
	// artifact stays loadable.
	if !opts.noFix {
		if _, err := fixer.FixMethods(opts.output); err != nil {
			return fmt.Errorf("fix output: %w", err)
		}
	}
	fmt.Fprintf(stdout, "wrote %s (%d functions)\n", opts.output, len(result.Functions))
	return nil
}

func saveRun(appPath string, result *descriptor.AnalysisResult, dbPath string) error {
	st, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	runID, err := st.SaveRun(appPath, result)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	slog.Info("run.saved", "id", runID)
	return nil
}

// openStore opens the runs database at dbPath, or the default location
// when dbPath is empty.
func openStore(dbPath string) (*store.Store, error) {
	if dbPath == "" {
		return store.OpenDefault()
	}
	return store.Open(dbPath)
}
