package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/autodeployr/flask-analyzer/internal/fixer"
)

func fixCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix <path>",
		Short: "Quote bare HTTP method lists in Python files",
		Long: `Fix rewrites methods=[GET, POST] into methods=['GET', 'POST'] so the
file parses again. A .bak backup is written next to each changed file.
Given a directory, every .py file under it is fixed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFix(args[0], cmd.OutOrStdout())
		},
	}
	return cmd
}

func runFix(path string, stdout io.Writer) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		changed, err := fixer.FixMethods(absPath)
		if err != nil {
			return err
		}
		if changed {
			fmt.Fprintf(stdout, "fixed %s\n", absPath)
		} else {
			fmt.Fprintf(stdout, "no changes in %s\n", absPath)
		}
		return nil
	}

	fixed, err := fixer.FixDirectory(absPath)
	if err != nil {
		return err
	}
	for _, f := range fixed {
		fmt.Fprintf(stdout, "fixed %s\n", f)
	}
	fmt.Fprintf(stdout, "%d files changed\n", len(fixed))
	return nil
}
