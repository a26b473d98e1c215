package discover

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/autodeployr/flask-analyzer/internal/lang"
)

// IGNORE_PATTERNS are directory names always skipped during discovery.
var IGNORE_PATTERNS = map[string]bool{
	".git":          true,
	".hg":           true,
	".svn":          true,
	"__pycache__":   true,
	".mypy_cache":   true,
	".pytest_cache": true,
	".tox":          true,
	".venv":         true,
	"venv":          true,
	"env":           true,
	"node_modules":  true,
	"dist":          true,
	"build":         true,
	".idea":         true,
	".vscode":       true,
	".eggs":         true,
}

// IGNORE_SUFFIXES are file suffixes never treated as source files.
var IGNORE_SUFFIXES = []string{".pyc", ".pyo", ".pyd", ".tmp", ".bak", "~"}

// IgnoreFileName is the per-project ignore file read from the root.
const IgnoreFileName = ".adignore"

// FileInfo describes one discovered source file.
type FileInfo struct {
	Path     string // absolute path
	RelPath  string // slash-separated path relative to the root
	Language lang.Language
}

// Options tunes discovery.
type Options struct {
	// IgnoreFile overrides the ignore file name read from the root.
	IgnoreFile string
	// ExtraIgnoreDirs are additional directory names to skip.
	ExtraIgnoreDirs []string
}

// Discover walks root and returns the parseable source files in walk
// order, which filepath.Walk keeps lexical and therefore deterministic.
// A nil opts uses the defaults.
func Discover(ctx context.Context, root string, opts *Options) ([]FileInfo, error) {
	if opts == nil {
		opts = &Options{}
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", root)
	}

	ignoreFile := opts.IgnoreFile
	if ignoreFile == "" {
		ignoreFile = IgnoreFileName
	}
	patterns := loadIgnoreFile(filepath.Join(root, ignoreFile))

	extra := make(map[string]bool, len(opts.ExtraIgnoreDirs))
	for _, d := range opts.ExtraIgnoreDirs {
		extra[d] = true
	}

	var files []FileInfo
	err = filepath.Walk(root, func(path string, entry os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if path == root {
				return nil
			}
			if shouldSkipDir(entry.Name(), rel, patterns, extra) {
				return filepath.SkipDir
			}
			return nil
		}

		for _, suffix := range IGNORE_SUFFIXES {
			if strings.HasSuffix(entry.Name(), suffix) {
				return nil
			}
		}
		if matchesIgnore(entry.Name(), rel, patterns) {
			return nil
		}
		l, ok := lang.LanguageForExtension(filepath.Ext(entry.Name()))
		if !ok {
			return nil
		}
		files = append(files, FileInfo{Path: path, RelPath: rel, Language: l})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func shouldSkipDir(name, rel string, patterns []string, extra map[string]bool) bool {
	if IGNORE_PATTERNS[name] || extra[name] {
		return true
	}
	return matchesIgnore(name, rel, patterns)
}

// matchesIgnore checks an ignore pattern against both the base name and
// the root-relative path, so "fixtures" and "tests/fixtures" both work.
func matchesIgnore(name, rel string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// loadIgnoreFile reads glob patterns from an ignore file, one per line.
// Blank lines and # comments are skipped. A missing file is fine.
func loadIgnoreFile(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var patterns []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// DetectLanguage classifies an application directory by its file
// extensions and marker files. C# and PHP markers win outright, Python
// wins over Java only when it has more files, and a tree with none of
// the known shapes is unknown.
func DetectLanguage(root string) lang.Language {
	var pyCount, javaCount, csCount, phpCount int
	var phpMarker bool

	_ = filepath.Walk(root, func(path string, entry os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if entry.IsDir() {
			if path != root && IGNORE_PATTERNS[entry.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		switch filepath.Ext(entry.Name()) {
		case ".py":
			pyCount++
		case ".java":
			javaCount++
		case ".cs", ".csproj":
			csCount++
		case ".php":
			phpCount++
		}
		switch entry.Name() {
		case "composer.json", "artisan":
			phpMarker = true
		}
		return nil
	})

	switch {
	case csCount > 0:
		return lang.CSharp
	case phpCount > 0 || phpMarker:
		return lang.PHP
	case pyCount > javaCount:
		return lang.Python
	case javaCount > 0:
		return lang.Java
	default:
		return lang.Unknown
	}
}
