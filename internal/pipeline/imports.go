package pipeline

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/autodeployr/flask-analyzer/internal/descriptor"
	"github.com/autodeployr/flask-analyzer/internal/parser"
)

// importEntry is one import binding as written in a file, with the line
// it appears on and the function that lexically encloses it (empty at
// module scope) so function-scoped imports stay attributable.
type importEntry struct {
	Def      descriptor.ImportDefinition
	Line     int
	Function string
}

// collectImports walks a parsed file and returns its import bindings in
// declaration order. Duplicate bindings are kept as written; descriptor
// assembly dedupes later.
func collectImports(root *tree_sitter.Node, source []byte) []importEntry {
	var entries []importEntry
	parser.Walk(root, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "import_statement":
			entries = append(entries, plainImports(n, source)...)
		case "import_from_statement":
			entries = append(entries, fromImports(n, source)...)
		}
		return true
	})
	return entries
}

// plainImports handles `import a.b` and `import a.b as c`. Without an
// alias the binding name is the full dotted path as written.
func plainImports(stmt *tree_sitter.Node, source []byte) []importEntry {
	line := int(stmt.StartPosition().Row) + 1
	scope := enclosingFunctionName(stmt, source)

	var entries []importEntry
	for i := uint(0); i < stmt.NamedChildCount(); i++ {
		child := stmt.NamedChild(i)
		switch child.Kind() {
		case "dotted_name":
			module := parser.NodeText(child, source)
			entries = append(entries, importEntry{
				Def:      descriptor.ImportDefinition{Module: module, Alias: module},
				Line:     line,
				Function: scope,
			})
		case "aliased_import":
			name := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			if name == nil || alias == nil {
				continue
			}
			entries = append(entries, importEntry{
				Def: descriptor.ImportDefinition{
					Module: parser.NodeText(name, source),
					Alias:  parser.NodeText(alias, source),
				},
				Line:     line,
				Function: scope,
			})
		}
	}
	return entries
}

// fromImports handles `from pkg import name [as alias], ...`. Each
// imported name becomes a binding whose module is "pkg.name", matching
// how the extracted descriptor later re-imports it. Relative imports
// keep only the named part: `from .models import User` yields module
// "models.User", and `from . import db` yields module "db".
func fromImports(stmt *tree_sitter.Node, source []byte) []importEntry {
	line := int(stmt.StartPosition().Row) + 1
	scope := enclosingFunctionName(stmt, source)

	moduleNode := stmt.ChildByFieldName("module_name")
	module := ""
	if moduleNode != nil {
		module = strings.TrimLeft(parser.NodeText(moduleNode, source), ".")
	}

	qualify := func(name string) string {
		if module == "" {
			return name
		}
		return module + "." + name
	}

	var entries []importEntry
	for i := uint(0); i < stmt.NamedChildCount(); i++ {
		child := stmt.NamedChild(i)
		if moduleNode != nil && child.StartByte() == moduleNode.StartByte() {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			name := parser.NodeText(child, source)
			entries = append(entries, importEntry{
				Def:      descriptor.ImportDefinition{Module: qualify(name), Alias: name},
				Line:     line,
				Function: scope,
			})
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if nameNode == nil || aliasNode == nil {
				continue
			}
			name := parser.NodeText(nameNode, source)
			entries = append(entries, importEntry{
				Def:      descriptor.ImportDefinition{Module: qualify(name), Alias: parser.NodeText(aliasNode, source)},
				Line:     line,
				Function: scope,
			})
		case "wildcard_import":
			entries = append(entries, importEntry{
				Def:      descriptor.ImportDefinition{Module: qualify("*"), Alias: "*"},
				Line:     line,
				Function: scope,
			})
		}
	}
	return entries
}
