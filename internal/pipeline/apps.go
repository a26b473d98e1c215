package pipeline

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/autodeployr/flask-analyzer/internal/parser"
)

// appSymbols holds the Flask application and blueprint variable names
// discovered across the whole project before route extraction starts.
// App symbols keep their discovery order so the primary one is stable.
type appSymbols struct {
	apps       map[string]bool
	blueprints map[string]bool
	order      []string
}

func newAppSymbols() *appSymbols {
	return &appSymbols{
		apps:       map[string]bool{},
		blueprints: map[string]bool{},
	}
}

func (s *appSymbols) addApps(names []string) {
	for _, n := range names {
		if !s.apps[n] {
			s.apps[n] = true
			s.order = append(s.order, n)
		}
	}
}

func (s *appSymbols) addBlueprints(names []string) {
	for _, n := range names {
		s.blueprints[n] = true
	}
}

// owns reports whether a name is a known app or blueprint symbol.
func (s *appSymbols) owns(name string) bool {
	return s.apps[name] || s.blueprints[name]
}

// primary returns the first app symbol discovered, or "app" when the
// project never constructs one.
func (s *appSymbols) primary() string {
	if len(s.order) > 0 {
		return s.order[0]
	}
	return "app"
}

// collectAppSymbols scans one parsed file for application constructions.
// Only a bare `x = Flask(...)` call binds an app symbol, and only an
// attribute call `x = <pkg>.Blueprint(...)` binds a blueprint.
func collectAppSymbols(root *tree_sitter.Node, source []byte) (apps, blueprints []string) {
	parser.Walk(root, func(n *tree_sitter.Node) bool {
		if n.Kind() != "assignment" {
			return true
		}
		left := n.ChildByFieldName("left")
		right := n.ChildByFieldName("right")
		if left == nil || right == nil || left.Kind() != "identifier" || right.Kind() != "call" {
			return true
		}
		fn := right.ChildByFieldName("function")
		if fn == nil {
			return true
		}
		target := parser.NodeText(left, source)
		switch fn.Kind() {
		case "identifier":
			if parser.NodeText(fn, source) == "Flask" {
				apps = append(apps, target)
			}
		case "attribute":
			attr := fn.ChildByFieldName("attribute")
			if attr != nil && parser.NodeText(attr, source) == "Blueprint" {
				blueprints = append(blueprints, target)
			}
		}
		return true
	})
	return apps, blueprints
}
