package pipeline

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/autodeployr/flask-analyzer/internal/parser"
)

// collectCalls gathers the call targets inside one definition, decorators
// included, in first-seen order. Traversal stops at nested definitions:
// an inner function's calls belong to the inner function's own record.
func collectCalls(def, decorated *tree_sitter.Node, source []byte) []string {
	root := def
	if decorated != nil {
		root = decorated
	}

	var targets []string
	seen := map[string]bool{}
	parser.Walk(root, func(n *tree_sitter.Node) bool {
		if !sameNode(n, root) && !sameNode(n, def) {
			switch n.Kind() {
			case "function_definition", "decorated_definition":
				return false
			}
		}
		if n.Kind() == "call" {
			if t := callTarget(n, source); t != "" && !seen[t] {
				seen[t] = true
				targets = append(targets, t)
			}
		}
		return true
	})
	return targets
}
