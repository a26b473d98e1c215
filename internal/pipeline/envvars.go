package pipeline

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/autodeployr/flask-analyzer/internal/parser"
)

// collectEnvVars scans a parsed file for environment variable reads and
// returns the names in first-seen order. Three access shapes count:
//
//	os.getenv("NAME")
//	<anything>.environ.get("NAME")
//	os.environ["NAME"]
//
// Only plain string literal names resolve; computed names are invisible
// to static analysis and are skipped.
func collectEnvVars(root *tree_sitter.Node, source []byte) []string {
	var names []string
	seen := map[string]bool{}
	add := func(node *tree_sitter.Node) {
		name, ok := stringLiteral(node, source)
		if !ok || name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	parser.Walk(root, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "call":
			fn := n.ChildByFieldName("function")
			if fn == nil || fn.Kind() != "attribute" {
				return true
			}
			attr := fn.ChildByFieldName("attribute")
			obj := fn.ChildByFieldName("object")
			if attr == nil || obj == nil {
				return true
			}
			switch parser.NodeText(attr, source) {
			case "getenv":
				if obj.Kind() == "identifier" && parser.NodeText(obj, source) == "os" {
					add(firstPositionalArg(n))
				}
			case "get":
				// os is not required here: any `x.environ.get` counts
				if obj.Kind() == "attribute" {
					tail := obj.ChildByFieldName("attribute")
					if tail != nil && parser.NodeText(tail, source) == "environ" {
						add(firstPositionalArg(n))
					}
				}
			}
		case "subscript":
			value := n.ChildByFieldName("value")
			if value == nil || value.Kind() != "attribute" {
				return true
			}
			attr := value.ChildByFieldName("attribute")
			obj := value.ChildByFieldName("object")
			if attr == nil || obj == nil || obj.Kind() != "identifier" {
				return true
			}
			if parser.NodeText(attr, source) == "environ" && parser.NodeText(obj, source) == "os" {
				add(n.ChildByFieldName("subscript"))
			}
		}
		return true
	})
	return names
}
