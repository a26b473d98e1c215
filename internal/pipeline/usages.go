package pipeline

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/autodeployr/flask-analyzer/internal/parser"
)

// collectRefs indexes the identifier roots a definition references: bare
// names read by the body plus the leftmost object of attribute chains.
// Decorators count, and nested definitions are included, because import
// slicing asks "does this function's text use that binding anywhere".
func collectRefs(def, decorated *tree_sitter.Node, source []byte) map[string]bool {
	root := def
	if decorated != nil {
		root = decorated
	}
	return refsInSubtree(root, source)
}

// refsInSubtree walks any subtree and records referenced identifier
// roots. Also used on re-parsed dependency sources, where the subtree is
// a whole module.
func refsInSubtree(root *tree_sitter.Node, source []byte) map[string]bool {
	refs := map[string]bool{}
	parser.Walk(root, func(n *tree_sitter.Node) bool {
		if n.Kind() == "identifier" && isReferenceIdentifier(n) {
			refs[parser.NodeText(n, source)] = true
		}
		return true
	})
	return refs
}

// isReferenceIdentifier filters out identifiers that bind rather than
// read a name: definition names, parameters, assignment targets, loop
// variables, import internals and the attribute side of attribute
// chains.
func isReferenceIdentifier(n *tree_sitter.Node) bool {
	p := n.Parent()
	if p == nil {
		return true
	}
	switch p.Kind() {
	case "attribute":
		return !sameNode(n, p.ChildByFieldName("attribute"))
	case "keyword_argument":
		return !sameNode(n, p.ChildByFieldName("name"))
	case "function_definition", "class_definition":
		return !sameNode(n, p.ChildByFieldName("name"))
	case "assignment", "augmented_assignment", "for_statement", "for_in_clause":
		return !sameNode(n, p.ChildByFieldName("left"))
	case "named_expression":
		return !sameNode(n, p.ChildByFieldName("name"))
	case "parameters", "lambda_parameters", "typed_parameter":
		return false
	case "list_splat_pattern", "dictionary_splat_pattern":
		return false
	case "default_parameter", "typed_default_parameter":
		return !sameNode(n, p.ChildByFieldName("name"))
	case "pattern_list", "tuple_pattern", "list_pattern":
		return false
	case "as_pattern_target", "global_statement", "nonlocal_statement":
		return false
	case "dotted_name", "aliased_import", "relative_import", "wildcard_import":
		return false
	}
	return true
}
