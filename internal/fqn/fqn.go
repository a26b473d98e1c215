// Package fqn computes dotted qualified names for Python symbols, used
// to tell apart same-named functions from different files in stored runs.
package fqn

import (
	"path"
	"path/filepath"
	"strings"
)

// Compute returns the qualified name of a symbol defined in a file,
// e.g. ("shop", "api/users.py", "get_user") -> "shop.api.users.get_user".
func Compute(project, relPath, name string) string {
	mod := ModuleQN(project, relPath)
	if mod == "" {
		return name
	}
	return mod + "." + name
}

// ModuleQN returns the dotted module path of a file within a project.
// The .py extension is dropped and a trailing __init__ segment collapses
// into its package, matching Python's import semantics.
func ModuleQN(project, relPath string) string {
	rel := strings.TrimSuffix(path.Clean(filepath.ToSlash(relPath)), ".py")
	segments := strings.Split(rel, "/")
	if n := len(segments); n > 0 && segments[n-1] == "__init__" {
		segments = segments[:n-1]
	}
	parts := make([]string, 0, len(segments)+1)
	if project != "" {
		parts = append(parts, project)
	}
	for _, seg := range segments {
		if seg == "" || seg == "." {
			continue
		}
		parts = append(parts, seg)
	}
	return strings.Join(parts, ".")
}
