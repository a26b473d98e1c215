package pipeline

import (
	"reflect"
	"testing"

	"github.com/autodeployr/flask-analyzer/internal/descriptor"
)

func importDef(module, alias string) descriptor.ImportDefinition {
	return descriptor.ImportDefinition{Module: module, Alias: alias}
}

func entriesOf(defs ...descriptor.ImportDefinition) []importEntry {
	entries := make([]importEntry, 0, len(defs))
	for _, d := range defs {
		entries = append(entries, importEntry{Def: d})
	}
	return entries
}

func TestSliceImportsReferencedBindings(t *testing.T) {
	rec := &functionRecord{
		Name:   "fn",
		Source: "def fn():\n    return np.zeros(3)",
		Refs:   map[string]bool{"np": true},
	}
	fileImports := entriesOf(
		importDef("numpy", "np"),
		importDef("pandas", "pd"),
	)
	got := sliceImports(rec, fileImports, nil, newCatalog())
	want := []descriptor.ImportDefinition{importDef("numpy", "np")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("imports = %v, want %v", got, want)
	}
}

func TestSliceImportsEssentialsAlwaysKept(t *testing.T) {
	rec := &functionRecord{Name: "fn", Source: "def fn():\n    return 1", Refs: map[string]bool{}}
	fileImports := entriesOf(
		importDef("flask.Flask", "Flask"),
		importDef("werkzeug.security", "security"),
		importDef("jinja2", "jinja2"),
		importDef("numpy", "np"),
	)
	got := sliceImports(rec, fileImports, nil, newCatalog())
	want := []descriptor.ImportDefinition{
		importDef("flask.Flask", "Flask"),
		importDef("werkzeug.security", "security"),
		importDef("jinja2", "jinja2"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("imports = %v, want %v", got, want)
	}
}

func TestSliceImportsOwningSymbol(t *testing.T) {
	rec := &functionRecord{
		Name:    "fn",
		AppName: "application",
		Source:  "def fn():\n    return 1",
		Refs:    map[string]bool{},
	}
	fileImports := entriesOf(importDef("factory.application", "application"))
	got := sliceImports(rec, fileImports, nil, newCatalog())
	if len(got) != 1 || got[0].Alias != "application" {
		t.Errorf("imports = %v", got)
	}
}

func TestSliceImportsConvenienceHelpers(t *testing.T) {
	// request is used via attribute access only, so the reference index
	// misses it when the name never appears bare.
	rec := &functionRecord{
		Name:   "fn",
		Source: "def fn():\n    name = request.args['n']\n    return render_template('x.html')",
		Refs:   map[string]bool{},
	}
	fileImports := entriesOf(
		importDef("flask.request", "request"),
		importDef("flask.render_template", "render_template"),
		importDef("flask.session", "session"),
	)
	got := sliceImports(rec, fileImports, nil, newCatalog())
	aliases := importAliases(got)
	// All three make it in through the essentials rule; the convenience
	// rule adds nothing new once they are seen.
	if !reflect.DeepEqual(aliases, []string{"request", "render_template", "session"}) {
		t.Errorf("imports = %v", aliases)
	}
}

func TestSliceImportsConvenienceNonFlaskModule(t *testing.T) {
	// A helper exposed from a local wrapper module is only carried when
	// the source shows a real use.
	fileImports := entriesOf(importDef("helpers.jsonify", "jsonify"))

	used := &functionRecord{
		Name:   "fn",
		Source: "def fn():\n    return jsonify({})",
		Refs:   map[string]bool{},
	}
	if got := sliceImports(used, fileImports, nil, newCatalog()); len(got) != 1 {
		t.Errorf("used helper dropped: %v", got)
	}

	unused := &functionRecord{
		Name:   "fn",
		Source: "def fn():\n    return {}",
		Refs:   map[string]bool{},
	}
	if got := sliceImports(unused, fileImports, nil, newCatalog()); len(got) != 0 {
		t.Errorf("unused helper kept: %v", got)
	}
}

func TestSliceImportsDatabaseModules(t *testing.T) {
	fileImports := entriesOf(
		importDef("models.engine", "engine"),
		importDef("numpy", "np"),
	)

	dbRec := &functionRecord{
		Name:       "fn",
		Source:     "def fn():\n    return engine",
		Refs:       map[string]bool{},
		RequiresDB: true,
	}
	got := sliceImports(dbRec, fileImports, nil, newCatalog())
	if len(got) != 1 || got[0].Alias != "engine" {
		t.Errorf("imports = %v", got)
	}

	plainRec := &functionRecord{
		Name:   "fn",
		Source: "def fn():\n    return 1",
		Refs:   map[string]bool{},
	}
	if got := sliceImports(plainRec, fileImports, nil, newCatalog()); len(got) != 0 {
		t.Errorf("non-db route kept db imports: %v", got)
	}
}

func TestSliceImportsDependencyImports(t *testing.T) {
	cat := newCatalog()
	cat.add(&functionRecord{
		Name:   "helper",
		Source: "def helper(x):\n    return json.dumps(x)",
	})

	rec := &functionRecord{
		Name:   "fn",
		Source: "def fn():\n    return helper(1)",
		Refs:   map[string]bool{"helper": true},
	}
	fileImports := entriesOf(
		importDef("json", "json"),
		importDef("numpy", "np"),
	)
	got := sliceImports(rec, fileImports, []string{"helper"}, cat)
	if len(got) != 1 || got[0].Alias != "json" {
		t.Errorf("imports = %v", got)
	}
}

func TestSliceImportsNilRefsKeepsEverything(t *testing.T) {
	rec := &functionRecord{Name: "fn", Source: "def fn():\n    return 1"}
	fileImports := entriesOf(
		importDef("numpy", "np"),
		importDef("numpy", "np"),
		importDef("pandas", "pd"),
	)
	got := sliceImports(rec, fileImports, nil, newCatalog())
	want := []descriptor.ImportDefinition{
		importDef("numpy", "np"),
		importDef("pandas", "pd"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("imports = %v, want %v", got, want)
	}
}

func TestSliceImportsNoDuplicates(t *testing.T) {
	rec := &functionRecord{
		Name:       "fn",
		AppName:    "app",
		Source:     "def fn():\n    return jsonify(request.args)",
		Refs:       map[string]bool{"jsonify": true, "request": true},
		RequiresDB: true,
	}
	fileImports := entriesOf(
		importDef("flask.request", "request"),
		importDef("flask.jsonify", "jsonify"),
		importDef("models.db", "db"),
	)
	got := sliceImports(rec, fileImports, nil, newCatalog())
	seen := map[descriptor.ImportDefinition]bool{}
	for _, d := range got {
		if seen[d] {
			t.Errorf("duplicate import %v", d)
		}
		seen[d] = true
	}
	if len(got) != 3 {
		t.Errorf("imports = %v, want all three exactly once", got)
	}
}

func TestPatternUsed(t *testing.T) {
	tests := []struct {
		pattern string
		source  string
		want    bool
	}{
		{"request", "name = request.args['n']", true},
		{"request", "body = request['data']", true},
		{"request", "resp = requests.get(url)", false},
		{"jsonify", "return jsonify(data)", true},
		{"jsonify", "label = 'jsonify'", false},
		{"render_template", "return render_template('a.html')", true},
		{"redirect", "return redirect(url)", true},
		{"url_for", "link = url_for('index')", true},
		{"session", "session['user'] = u", true},
		{"session", "session.pop('user')", true},
		{"custom_helper", "return custom_helper(1)", true},
		{"custom_helper", "return my_custom_helpers(1)", false},
	}
	for _, tt := range tests {
		if got := patternUsed(tt.pattern, tt.source); got != tt.want {
			t.Errorf("patternUsed(%q, %q) = %v, want %v", tt.pattern, tt.source, got, tt.want)
		}
	}
}

func TestDependencyImportsReparse(t *testing.T) {
	fileImports := []descriptor.ImportDefinition{
		importDef("json", "json"),
		importDef("os", "os"),
		importDef("numpy", "np"),
	}
	got := dependencyImports("def helper(x):\n    return json.dumps(x)\n", fileImports)
	want := []descriptor.ImportDefinition{importDef("json", "json")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("imports = %v, want %v", got, want)
	}
}

func TestDependencyImportsIndentedFallback(t *testing.T) {
	// A function extracted from inside another block keeps its original
	// indentation and no longer parses as a module on its own; the
	// textual scan takes over.
	fileImports := []descriptor.ImportDefinition{
		importDef("os", "os"),
		importDef("json", "json"),
	}
	got := dependencyImports("    def helper():\n        return os.getcwd()\n", fileImports)
	want := []descriptor.ImportDefinition{importDef("os", "os")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("imports = %v, want %v", got, want)
	}
}

func TestDetectCommonImports(t *testing.T) {
	fileImports := []descriptor.ImportDefinition{
		importDef("hashlib", "hashlib"),
		importDef("os.path", "path"),
		importDef("json", "json"),
	}

	got := detectCommonImports("h = hashlib.sha256(data)\np = os.path.join(a, b)", fileImports)
	want := []descriptor.ImportDefinition{
		importDef("hashlib", "hashlib"),
		importDef("os.path", "path"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("imports = %v, want %v", got, want)
	}

	if got := detectCommonImports("return 42", fileImports); len(got) != 0 {
		t.Errorf("imports = %v, want none", got)
	}
}
