// Package fixer repairs a formatting defect that shows up in generated
// Flask code and in descriptor output: HTTP method lists written without
// quotes, like methods=[GET, POST]. The fix rewrites them to quoted
// Python list literals in place.
package fixer

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/autodeployr/flask-analyzer/internal/discover"
)

var (
	singleMethodRe = regexp.MustCompile(`methods=\[([A-Z]+)\]`)
	doubleMethodRe = regexp.MustCompile(`methods=\[([A-Z]+), ([A-Z]+)\]`)
)

// FixMethods rewrites unquoted method lists in one file. It reports
// whether the file changed; an already clean file is left untouched,
// with no write and no backup.
func FixMethods(path string) (bool, error) {
	original, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	fixed := doubleMethodRe.ReplaceAll(original, []byte(`methods=['${1}', '${2}']`))
	fixed = singleMethodRe.ReplaceAll(fixed, []byte(`methods=['${1}']`))
	if bytes.Equal(fixed, original) {
		return false, nil
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}

	// Best effort backup; the fix still lands when it fails.
	if err := os.WriteFile(path+".bak", original, mode); err != nil {
		slog.Warn("fixer.backup.err", "path", path, "err", err)
	}

	if err := os.WriteFile(path, fixed, mode); err != nil {
		return false, err
	}
	return true, nil
}

// FixDirectory applies FixMethods to every Python file under root and
// returns the paths that changed. Unreadable files are logged and
// skipped so one bad file cannot stop the sweep.
func FixDirectory(root string) ([]string, error) {
	var changed []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if discover.IGNORE_PATTERNS[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".py") {
			return nil
		}
		fixed, err := FixMethods(path)
		if err != nil {
			slog.Warn("fixer.file.err", "path", path, "err", err)
			return nil
		}
		if fixed {
			changed = append(changed, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}
