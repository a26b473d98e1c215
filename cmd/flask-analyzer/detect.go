package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/autodeployr/flask-analyzer/internal/discover"
)

func detectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect <path>",
		Short: "Detect the dominant source language of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(args[0], cmd.OutOrStdout())
		},
	}
	return cmd
}

func runDetect(path string, stdout io.Writer) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, discover.DetectLanguage(absPath))
	return nil
}
