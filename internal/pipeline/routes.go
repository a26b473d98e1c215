package pipeline

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/autodeployr/flask-analyzer/internal/parser"
)

// routeRecord is one route decorator occurrence bound to a function. A
// function with several route decorators produces several records, one
// per path.
type routeRecord struct {
	Function string
	Path     string
	// Methods are the HTTP methods as written in the decorator. nil
	// means the decorator named none; assembly applies the default.
	Methods  []string
	AppName  string
	FilePath string
	// Line is the 1-based line of the def statement.
	Line int
	// Rec is the record of this route's own definition, pinned before
	// catalog merging so name collisions cannot swap its source out.
	Rec *functionRecord
}

// matchRouteDecorator checks one decorator expression for the
// `<symbol>.route(...)` shape against the known app and blueprint
// symbols. It returns the owning symbol and the decorator call node.
func matchRouteDecorator(expr *tree_sitter.Node, source []byte, symbols *appSymbols) (string, *tree_sitter.Node, bool) {
	if expr == nil || expr.Kind() != "call" {
		return "", nil, false
	}
	fn := expr.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "attribute" {
		return "", nil, false
	}
	attr := fn.ChildByFieldName("attribute")
	obj := fn.ChildByFieldName("object")
	if attr == nil || obj == nil || obj.Kind() != "identifier" {
		return "", nil, false
	}
	if parser.NodeText(attr, source) != "route" {
		return "", nil, false
	}
	owner := parser.NodeText(obj, source)
	if !symbols.owns(owner) {
		return "", nil, false
	}
	return owner, expr, true
}

// routeOwner returns the owning symbol of the first route decorator on a
// definition. A match here marks the function as a route even when its
// path argument later turns out unresolvable.
func routeOwner(decorated *tree_sitter.Node, source []byte, symbols *appSymbols) (string, bool) {
	for _, expr := range decoratorExprs(decorated) {
		if owner, _, ok := matchRouteDecorator(expr, source, symbols); ok {
			return owner, true
		}
	}
	return "", false
}

// extractRoutes reads every route decorator on a definition. Decorators
// whose path is not a plain non-empty string literal are skipped; the
// function stays cataloged either way.
func extractRoutes(def, decorated *tree_sitter.Node, source []byte, symbols *appSymbols, relPath string, rec *functionRecord) []routeRecord {
	var routes []routeRecord
	for _, expr := range decoratorExprs(decorated) {
		owner, call, ok := matchRouteDecorator(expr, source, symbols)
		if !ok {
			continue
		}
		path, ok := stringLiteral(firstPositionalArg(call), source)
		if !ok || path == "" {
			continue
		}
		routes = append(routes, routeRecord{
			Function: rec.Name,
			Path:     path,
			Methods:  routeMethods(call, source),
			AppName:  owner,
			FilePath: relPath,
			Line:     int(def.StartPosition().Row) + 1,
			Rec:      rec,
		})
	}
	return routes
}

// routeMethods reads the methods keyword argument. Only a list literal
// of plain strings counts; any other shape, or no argument at all,
// leaves the default in force. An explicit empty list also falls back
// to the default at assembly.
func routeMethods(call *tree_sitter.Node, source []byte) []string {
	value := keywordArg(call, "methods", source)
	if value == nil || value.Kind() != "list" {
		return nil
	}
	var methods []string
	for i := uint(0); i < value.NamedChildCount(); i++ {
		if m, ok := stringLiteral(value.NamedChild(i), source); ok {
			methods = append(methods, m)
		}
	}
	return methods
}
