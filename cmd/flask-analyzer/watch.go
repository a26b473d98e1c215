package main

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/autodeployr/flask-analyzer/internal/watcher"
)

func watchCmd() *cobra.Command {
	var output, dbPath string
	var noFix, save bool

	cmd := &cobra.Command{
		Use:   "watch <path>",
		Short: "Re-analyze a Flask application whenever its files change",
		Long: `Watch runs an initial analysis of the application, then polls the file
tree and re-runs the analysis whenever a source file is added, removed,
or modified. The poll interval adapts to the tree size.

Examples:
  flask-analyzer watch ./myapp                 # Print each result to stdout
  flask-analyzer watch ./myapp -o result.json  # Keep result.json current
  flask-analyzer watch ./myapp --save          # Persist each result as a run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			opts := analyzeOptions{
				output: output,
				noFix:  noFix,
				save:   save,
				dbPath: dbPath,
			}
			stdout := cmd.OutOrStdout()

			if err := runAnalyze(cmd.Context(), absPath, opts, stdout); err != nil {
				return err
			}

			w := watcher.New(absPath, func(ctx context.Context, root string) error {
				return runAnalyze(ctx, root, opts, stdout)
			})
			slog.Info("watch.start", "path", absPath)
			w.Run(cmd.Context())
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write each result to this file instead of stdout")
	cmd.Flags().BoolVar(&noFix, "no-fix", false, "skip the method-list rewrite on the output file")
	cmd.Flags().BoolVar(&save, "save", false, "persist each result as a run")
	cmd.Flags().StringVar(&dbPath, "db", "", "runs database path (default: ~/.cache/flask-analyzer/runs.db)")

	return cmd
}
