package pipeline

import (
	"regexp"
	"strings"

	"github.com/autodeployr/flask-analyzer/internal/descriptor"
	"github.com/autodeployr/flask-analyzer/internal/lang"
	"github.com/autodeployr/flask-analyzer/internal/parser"
)

// essentialPrefixes are module prefixes every extracted route keeps,
// whether or not the body mentions them: the framework itself must
// travel with the function.
var essentialPrefixes = []string{"flask", "werkzeug", "jinja2"}

// conveniencePatterns are Flask helpers often used without a visible
// binding reference, checked textually against the route source.
var conveniencePatterns = []string{
	"request", "jsonify", "render_template", "redirect", "url_for", "session",
}

// conveniencePatternRes maps each convenience name to the usage shapes
// that count as a real use in source text.
var conveniencePatternRes = map[string][]*regexp.Regexp{
	"request":         {regexp.MustCompile(`\brequest\.`), regexp.MustCompile(`\brequest\[`)},
	"jsonify":         {regexp.MustCompile(`\bjsonify\(`)},
	"render_template": {regexp.MustCompile(`\brender_template\(`)},
	"redirect":        {regexp.MustCompile(`\bredirect\(`)},
	"url_for":         {regexp.MustCompile(`\burl_for\(`)},
	"session":         {regexp.MustCompile(`\bsession\.`), regexp.MustCompile(`\bsession\[`)},
}

// dbImportKeywords select the imports carried along when a route is
// classified as database-dependent. Narrower than the classifier's
// keyword list: these pick which bindings to keep, not whether the
// route touches a database.
var dbImportKeywords = []string{
	"db", "database", "models", "sqlalchemy", "psycopg2", "pymongo", "redis",
}

// commonModules are well-known modules matched textually when a
// dependency's source cannot be re-parsed.
var commonModules = []string{
	"hashlib", "os", "sys", "json", "datetime", "time",
	"random", "re", "base64", "urllib", "requests",
}

var commonModuleRes = func() map[string][]*regexp.Regexp {
	m := make(map[string][]*regexp.Regexp, len(commonModules))
	for _, name := range commonModules {
		m[name] = []*regexp.Regexp{
			regexp.MustCompile(`\b` + name + `\.`),
			regexp.MustCompile(name + `\s*\.\s*\w+`),
		}
	}
	return m
}()

// sliceImports selects the file imports one route actually needs, as the
// ordered union of six rules: bindings the body references, framework
// essentials, the owning app symbol, convenience helpers with textual
// evidence, database modules for DB routes, and finally whatever the
// route's dependency functions use. Duplicate (module, alias) pairs
// collapse on first appearance.
func sliceImports(rec *functionRecord, fileImports []importEntry, deps []string, cat *catalog) []descriptor.ImportDefinition {
	all := make([]descriptor.ImportDefinition, 0, len(fileImports))
	for _, e := range fileImports {
		all = append(all, e.Def)
	}

	used := []descriptor.ImportDefinition{}
	seen := map[descriptor.ImportDefinition]bool{}
	add := func(d descriptor.ImportDefinition) {
		if !seen[d] {
			seen[d] = true
			used = append(used, d)
		}
	}

	if rec.Refs == nil {
		// no reference index for this definition: keep the whole file's imports
		for _, d := range all {
			add(d)
		}
		return used
	}

	// rule 1: bindings the body references
	for _, d := range all {
		if rec.Refs[d.Alias] {
			add(d)
		}
	}

	// rule 2: framework essentials
	for _, d := range all {
		lower := strings.ToLower(d.Module)
		for _, prefix := range essentialPrefixes {
			if strings.HasPrefix(lower, prefix) {
				add(d)
				break
			}
		}
	}

	// rule 3: the owning app or blueprint symbol
	if rec.AppName != "" {
		for _, d := range all {
			if d.Alias == rec.AppName {
				add(d)
			}
		}
	}

	// rule 4: convenience helpers with textual evidence of use
	for _, pattern := range conveniencePatterns {
		for _, d := range all {
			if d.Alias != pattern || seen[d] {
				continue
			}
			if patternUsed(pattern, rec.Source) {
				add(d)
			}
		}
	}

	// rule 5: database modules for DB routes
	if rec.RequiresDB {
		for _, d := range all {
			lower := strings.ToLower(d.Module)
			for _, kw := range dbImportKeywords {
				if strings.Contains(lower, kw) {
					add(d)
					break
				}
			}
		}
	}

	// rule 6: imports used by dependency functions
	for _, dep := range deps {
		depRec, ok := cat.get(dep)
		if !ok || depRec.Source == "" {
			continue
		}
		for _, d := range dependencyImports(depRec.Source, all) {
			add(d)
		}
	}

	return used
}

// patternUsed checks whether a convenience helper shows a real use in
// the source text. Helpers without a specific shape fall back to a bare
// word-boundary search.
func patternUsed(pattern, source string) bool {
	if res, ok := conveniencePatternRes[pattern]; ok {
		for _, re := range res {
			if re.MatchString(source) {
				return true
			}
		}
		return false
	}
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(pattern) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(source)
}

// dependencyImports re-parses a dependency's extracted source on its own
// and keeps the file imports it references. Sources that no longer parse
// cleanly in isolation, such as functions nested inside another block,
// fall back to the textual scan.
func dependencyImports(depSource string, fileImports []descriptor.ImportDefinition) []descriptor.ImportDefinition {
	src := []byte(depSource)
	tree, err := parser.Parse(lang.Python, src)
	if err == nil {
		defer tree.Close()
		root := tree.RootNode()
		if !root.HasError() {
			refs := refsInSubtree(root, src)
			var out []descriptor.ImportDefinition
			for _, d := range fileImports {
				if refs[d.Alias] {
					out = append(out, d)
				}
			}
			return out
		}
	}
	return detectCommonImports(depSource, fileImports)
}

// detectCommonImports textually scans a source fragment for well-known
// module uses and returns the matching file imports. A binding matches a
// module when it imports the module itself, a submodule of it, or binds
// the same name.
func detectCommonImports(source string, fileImports []descriptor.ImportDefinition) []descriptor.ImportDefinition {
	var out []descriptor.ImportDefinition
	seen := map[descriptor.ImportDefinition]bool{}
	for _, name := range commonModules {
		matched := false
		for _, re := range commonModuleRes[name] {
			if re.MatchString(source) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		for _, d := range fileImports {
			if d.Module == name || strings.HasPrefix(d.Module, name+".") || d.Alias == name {
				if !seen[d] {
					seen[d] = true
					out = append(out, d)
				}
			}
		}
	}
	return out
}
