package pipeline

import (
	"log/slog"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/autodeployr/flask-analyzer/internal/parser"
)

// functionRecord is one cataloged function definition. Every definition
// in the project lands here, routes and plain helpers alike, so closure
// resolution can look any callee up by bare name.
type functionRecord struct {
	Name      string
	Source    string
	StartLine int
	EndLine   int
	IsRoute   bool
	// AppName is the owning app or blueprint symbol when IsRoute.
	AppName  string
	FilePath string
	// Calls are the call targets in the body, first-seen order, with
	// nested definitions keeping their own sets.
	Calls []string
	// Refs are the identifier roots referenced anywhere in the
	// definition, decorators included.
	Refs       map[string]bool
	RequiresDB bool
}

// catalog maps bare function names to their records. Merging is
// last-write-wins in deterministic file order, so a re-used name resolves
// to the same definition on every run.
type catalog struct {
	byName map[string]*functionRecord
}

func newCatalog() *catalog {
	return &catalog{byName: map[string]*functionRecord{}}
}

func (c *catalog) add(rec *functionRecord) {
	if rec == nil || rec.Name == "" {
		return
	}
	if prev, ok := c.byName[rec.Name]; ok && prev.FilePath != rec.FilePath {
		slog.Debug("catalog.collision", "name", rec.Name, "kept", rec.FilePath, "dropped", prev.FilePath)
	}
	c.byName[rec.Name] = rec
}

func (c *catalog) get(name string) (*functionRecord, bool) {
	rec, ok := c.byName[name]
	return rec, ok
}

// functionSource slices the source text of a definition, decorators
// included. The node span is used as long as the subtree parsed cleanly;
// definitions containing syntax errors fall back to an indentation scan,
// and when even the lines are unaddressable a bare signature stands in.
func functionSource(def, decorated *tree_sitter.Node, source []byte) string {
	node := def
	if decorated != nil {
		node = decorated
	}
	if !node.HasError() {
		if text := parser.NodeText(node, source); text != "" {
			return text
		}
	}

	lines := strings.Split(string(source), "\n")
	start := int(node.StartPosition().Row)
	defRow := int(def.StartPosition().Row)
	if start >= len(lines) || defRow >= len(lines) {
		return defSignature(def, source)
	}
	end := blockEndByIndent(lines, defRow)
	return strings.Join(lines[start:end], "\n")
}

// blockEndByIndent finds the exclusive end line of a def block: the scan
// stops at the first non-blank line indented at or shallower than the
// def line, and blank lines before that point stay inside the block.
func blockEndByIndent(lines []string, defRow int) int {
	defIndent := indentWidth(lines[defRow])
	end := defRow + 1
	for i := defRow + 1; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) != "" && indentWidth(line) <= defIndent {
			break
		}
		end = i + 1
	}
	return end
}

func indentWidth(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// defSignature is the last-resort source form when a definition's lines
// cannot be recovered at all.
func defSignature(def *tree_sitter.Node, source []byte) string {
	name := "unknown"
	if n := def.ChildByFieldName("name"); n != nil {
		name = parser.NodeText(n, source)
	}
	return "def " + name + "():"
}
