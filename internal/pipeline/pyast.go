package pipeline

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/autodeployr/flask-analyzer/internal/parser"
)

// sameNode reports whether two nodes are the same node in the tree.
func sameNode(a, b *tree_sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}

// stringLiteral returns the value of a plain string literal node by
// joining its content parts. ok is false for f-strings, byte strings and
// anything else whose value is not known statically.
func stringLiteral(node *tree_sitter.Node, source []byte) (string, bool) {
	if node == nil || node.Kind() != "string" {
		return "", false
	}
	var sb strings.Builder
	for i := uint(0); i < node.NamedChildCount(); i++ {
		part := node.NamedChild(i)
		switch part.Kind() {
		case "string_start":
			prefix := strings.ToLower(parser.NodeText(part, source))
			if strings.ContainsAny(prefix, "fb") {
				return "", false
			}
		case "string_content", "escape_sequence":
			sb.WriteString(parser.NodeText(part, source))
		case "interpolation":
			return "", false
		}
	}
	return sb.String(), true
}

// callTarget returns "name" for a bare call and "recv.attr" for a method
// call on a simple receiver. Any other callee shape yields "".
func callTarget(call *tree_sitter.Node, source []byte) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Kind() {
	case "identifier":
		return parser.NodeText(fn, source)
	case "attribute":
		obj := fn.ChildByFieldName("object")
		attr := fn.ChildByFieldName("attribute")
		if obj != nil && attr != nil && obj.Kind() == "identifier" {
			return parser.NodeText(obj, source) + "." + parser.NodeText(attr, source)
		}
	}
	return ""
}

// attributeName returns the attribute field text of a call's callee when
// the callee is an attribute access, e.g. "execute" for cur.execute(...).
func attributeName(call *tree_sitter.Node, source []byte) string {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "attribute" {
		return ""
	}
	attr := fn.ChildByFieldName("attribute")
	if attr == nil {
		return ""
	}
	return parser.NodeText(attr, source)
}

// firstPositionalArg returns the first non-keyword argument of a call.
func firstPositionalArg(call *tree_sitter.Node) *tree_sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	for i := uint(0); i < args.NamedChildCount(); i++ {
		c := args.NamedChild(i)
		if c.Kind() != "keyword_argument" && c.Kind() != "comment" {
			return c
		}
	}
	return nil
}

// keywordArg returns the value node of a named keyword argument.
func keywordArg(call *tree_sitter.Node, name string, source []byte) *tree_sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	for i := uint(0); i < args.NamedChildCount(); i++ {
		c := args.NamedChild(i)
		if c.Kind() != "keyword_argument" {
			continue
		}
		key := c.ChildByFieldName("name")
		if key != nil && parser.NodeText(key, source) == name {
			return c.ChildByFieldName("value")
		}
	}
	return nil
}

// enclosingFunctionName climbs to the nearest enclosing function
// definition and returns its name, or "" at module scope.
func enclosingFunctionName(node *tree_sitter.Node, source []byte) string {
	for p := node.Parent(); p != nil; p = p.Parent() {
		if p.Kind() != "function_definition" {
			continue
		}
		if name := p.ChildByFieldName("name"); name != nil {
			return parser.NodeText(name, source)
		}
	}
	return ""
}

// decoratedParent returns the decorated_definition wrapping a definition,
// or nil when it has no decorators.
func decoratedParent(def *tree_sitter.Node) *tree_sitter.Node {
	p := def.Parent()
	if p != nil && p.Kind() == "decorated_definition" {
		return p
	}
	return nil
}

// decoratorExprs returns the expression node of each decorator on a
// decorated definition, in source order.
func decoratorExprs(decorated *tree_sitter.Node) []*tree_sitter.Node {
	if decorated == nil {
		return nil
	}
	var exprs []*tree_sitter.Node
	for i := uint(0); i < decorated.NamedChildCount(); i++ {
		c := decorated.NamedChild(i)
		if c.Kind() != "decorator" {
			continue
		}
		if expr := c.NamedChild(0); expr != nil {
			exprs = append(exprs, expr)
		}
	}
	return exprs
}

// stripBOM drops a UTF-8 byte order mark so byte offsets line up with
// what tree-sitter parses.
func stripBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}
