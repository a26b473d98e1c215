package pipeline

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/autodeployr/flask-analyzer/internal/parser"
)

// dbModuleKeywords mark an imported module as database-related when they
// appear anywhere in its lowercased dotted path.
var dbModuleKeywords = []string{
	"psycopg2", "mysql", "sqlite3", "sqlalchemy", "pymongo",
	"redis", "elasticsearch", "cassandra", "neo4j", "db",
}

// dbMethodNames are method calls that indicate live database access.
var dbMethodNames = map[string]bool{
	"connect":  true,
	"cursor":   true,
	"execute":  true,
	"query":    true,
	"commit":   true,
	"rollback": true,
}

// usesDatabase classifies one definition: true when its body declares an
// import matching a database keyword, or calls a method named like one.
// Only imports lexically inside the definition count; module-level
// imports influence the sliced import list instead, not this flag.
func usesDatabase(def, decorated *tree_sitter.Node, source []byte, extraKeywords []string) bool {
	root := def
	if decorated != nil {
		root = decorated
	}

	found := false
	parser.Walk(root, func(n *tree_sitter.Node) bool {
		if found {
			return false
		}
		switch n.Kind() {
		case "import_statement", "import_from_statement":
			for _, module := range importedModules(n, source) {
				if matchesDBKeyword(module, extraKeywords) {
					found = true
					return false
				}
			}
		case "call":
			if dbMethodNames[attributeName(n, source)] {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// importedModules lists the dotted module paths named by one import
// statement, leading relative dots stripped.
func importedModules(stmt *tree_sitter.Node, source []byte) []string {
	var modules []string
	if stmt.Kind() == "import_from_statement" {
		if mod := stmt.ChildByFieldName("module_name"); mod != nil {
			modules = append(modules, strings.TrimLeft(parser.NodeText(mod, source), "."))
		}
		return modules
	}
	for i := uint(0); i < stmt.NamedChildCount(); i++ {
		child := stmt.NamedChild(i)
		switch child.Kind() {
		case "dotted_name":
			modules = append(modules, parser.NodeText(child, source))
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				modules = append(modules, parser.NodeText(name, source))
			}
		}
	}
	return modules
}

func matchesDBKeyword(module string, extra []string) bool {
	lower := strings.ToLower(module)
	for _, kw := range dbModuleKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, kw := range extra {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
