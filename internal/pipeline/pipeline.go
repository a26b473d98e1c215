package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/autodeployr/flask-analyzer/internal/config"
	"github.com/autodeployr/flask-analyzer/internal/descriptor"
	"github.com/autodeployr/flask-analyzer/internal/discover"
	"github.com/autodeployr/flask-analyzer/internal/lang"
	"github.com/autodeployr/flask-analyzer/internal/parser"
)

// Analyzer orchestrates the two-phase route extraction over one
// application. Phase one finds app and blueprint symbols across every
// file; phase two extracts imports, functions, routes, calls and
// environment reads per file; assembly then packages each route into a
// standalone descriptor.
type Analyzer struct {
	ctx  context.Context
	cfg  *config.Config
	root string

	symbols       *appSymbols
	cat           *catalog
	importsByFile map[string][]importEntry
	routes        []routeRecord
	envVars       map[string]bool
	dbKeywords    []string
}

// New creates an Analyzer for the application rooted at root. A nil cfg
// uses the defaults.
func New(ctx context.Context, root string, cfg *config.Config) *Analyzer {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Analyzer{
		ctx:           ctx,
		cfg:           cfg,
		root:          root,
		symbols:       newAppSymbols(),
		cat:           newCatalog(),
		importsByFile: map[string][]importEntry{},
		envVars:       map[string]bool{},
		dbKeywords:    cfg.ExtraDBKeywords(),
	}
}

// Analyze runs the full pipeline over an application directory.
func Analyze(ctx context.Context, root string, cfg *config.Config) (*descriptor.AnalysisResult, error) {
	return New(ctx, root, cfg).Run()
}

// AnalyzeFile runs the pipeline over a single source file. The file's
// base name stands in for its project-relative path.
func AnalyzeFile(ctx context.Context, path string, cfg *config.Config) (*descriptor.AnalysisResult, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	a := New(ctx, filepath.Dir(path), cfg)
	files := []discover.FileInfo{{Path: path, RelPath: filepath.Base(path), Language: lang.Python}}
	if err := a.scanApps(files); err != nil {
		return nil, err
	}
	if err := a.analyzeFiles(files); err != nil {
		return nil, err
	}
	return a.buildResult(), nil
}

// Run discovers the source files and executes both phases. A root that
// cannot be walked yields an empty result rather than an error; only
// cancellation aborts.
func (a *Analyzer) Run() (*descriptor.AnalysisResult, error) {
	start := time.Now()
	slog.Info("analyze.start", "root", a.root)

	files, err := discover.Discover(a.ctx, a.root, &discover.Options{ExtraIgnoreDirs: a.cfg.ExtraIgnoreDirs()})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		slog.Warn("discover.err", "root", a.root, "err", err)
		files = nil
	}

	t := time.Now()
	if err := a.scanApps(files); err != nil {
		return nil, err
	}
	slog.Info("pass.timing", "pass", "apps", "elapsed", time.Since(t))

	t = time.Now()
	if err := a.analyzeFiles(files); err != nil {
		return nil, err
	}
	slog.Info("pass.timing", "pass", "extract", "elapsed", time.Since(t))

	result := a.buildResult()
	slog.Info("analyze.done", "root", a.root,
		"files", len(files), "functions", len(result.Functions), "elapsed", time.Since(start))
	return result, nil
}

// appScanResult carries one file's phase-one contribution.
type appScanResult struct {
	file       discover.FileInfo
	apps       []string
	blueprints []string
	err        error
}

// scanApps is phase one: every file is parsed for app and blueprint
// constructions before any route classification happens, so a route in
// one file can hang off an app constructed in another. Files parse in
// parallel; merging stays in file order to keep the primary app stable.
func (a *Analyzer) scanApps(files []discover.FileInfo) error {
	if len(files) == 0 {
		return a.ctx.Err()
	}
	results := make([]*appScanResult, len(files))
	g, gctx := errgroup.WithContext(a.ctx)
	g.SetLimit(a.workers(len(files)))
	for i, f := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = scanAppFile(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		if r.err != nil {
			slog.Warn("apps.file.err", "path", r.file.RelPath, "err", r.err)
			continue
		}
		a.symbols.addApps(r.apps)
		a.symbols.addBlueprints(r.blueprints)
	}
	return nil
}

func scanAppFile(f discover.FileInfo) *appScanResult {
	r := &appScanResult{file: f}
	source, err := os.ReadFile(f.Path)
	if err != nil {
		r.err = err
		return r
	}
	source = stripBOM(source)
	tree, err := parser.Parse(f.Language, source)
	if err != nil {
		r.err = err
		return r
	}
	defer tree.Close()
	r.apps, r.blueprints = collectAppSymbols(tree.RootNode(), source)
	return r
}

// parseResult carries one file's phase-two contribution.
type parseResult struct {
	file      discover.FileInfo
	imports   []importEntry
	functions []*functionRecord
	routes    []routeRecord
	envVars   []string
	err       error
}

// analyzeFiles is phase two: per-file extraction in parallel workers,
// then a sequential merge in file order. A file that fails contributes
// nothing and the rest of the run continues.
func (a *Analyzer) analyzeFiles(files []discover.FileInfo) error {
	if len(files) == 0 {
		return a.ctx.Err()
	}
	results := make([]*parseResult, len(files))
	g, gctx := errgroup.WithContext(a.ctx)
	g.SetLimit(a.workers(len(files)))
	for i, f := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = a.extractFile(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		if r.err != nil {
			slog.Warn("extract.file.err", "path", r.file.RelPath, "err", r.err)
			continue
		}
		a.merge(r)
	}
	return nil
}

// extractFile parses one file and runs every extraction visitor over it.
// It only reads shared analyzer state (the phase-one symbols), so it is
// safe to run from parallel workers.
func (a *Analyzer) extractFile(f discover.FileInfo) *parseResult {
	r := &parseResult{file: f}
	source, err := os.ReadFile(f.Path)
	if err != nil {
		r.err = err
		return r
	}
	source = stripBOM(source)
	tree, err := parser.Parse(f.Language, source)
	if err != nil {
		r.err = err
		return r
	}
	defer tree.Close()
	root := tree.RootNode()

	r.imports = collectImports(root, source)
	parser.Walk(root, func(n *tree_sitter.Node) bool {
		if n.Kind() != "function_definition" {
			return true
		}
		rec, routes := a.processDefinition(n, source, f.RelPath)
		if rec != nil {
			r.functions = append(r.functions, rec)
			r.routes = append(r.routes, routes...)
		}
		return true
	})
	r.envVars = collectEnvVars(root, source)
	return r
}

// processDefinition builds the catalog record for one function
// definition and, when it is a route, its route records.
func (a *Analyzer) processDefinition(def *tree_sitter.Node, source []byte, relPath string) (*functionRecord, []routeRecord) {
	nameNode := def.ChildByFieldName("name")
	if nameNode == nil {
		return nil, nil
	}
	decorated := decoratedParent(def)
	rec := &functionRecord{
		Name:       parser.NodeText(nameNode, source),
		Source:     functionSource(def, decorated, source),
		StartLine:  int(def.StartPosition().Row) + 1,
		EndLine:    int(def.EndPosition().Row) + 1,
		FilePath:   relPath,
		Calls:      collectCalls(def, decorated, source),
		Refs:       collectRefs(def, decorated, source),
		RequiresDB: usesDatabase(def, decorated, source, a.dbKeywords),
	}
	if owner, ok := routeOwner(decorated, source, a.symbols); ok {
		rec.IsRoute = true
		rec.AppName = owner
	}
	if !rec.IsRoute {
		return rec, nil
	}
	return rec, extractRoutes(def, decorated, source, a.symbols, relPath, rec)
}

func (a *Analyzer) merge(r *parseResult) {
	a.importsByFile[r.file.RelPath] = r.imports
	for _, rec := range r.functions {
		a.cat.add(rec)
	}
	a.routes = append(a.routes, r.routes...)
	for _, v := range r.envVars {
		a.envVars[v] = true
	}
}

// buildResult assembles every route's descriptor. The environment set is
// the run-wide union, attached to each function: an extracted route must
// keep working even when its configuration is read elsewhere in the app.
func (a *Analyzer) buildResult() *descriptor.AnalysisResult {
	env := make([]string, 0, len(a.envVars))
	for v := range a.envVars {
		env = append(env, v)
	}
	sort.Strings(env)

	defaultMethods := a.cfg.EffectiveDefaultMethods()
	functions := make([]*descriptor.ServerlessFunction, 0, len(a.routes))
	for _, route := range a.routes {
		functions = append(functions, assemble(route, a.importsByFile[route.FilePath], a.cat, env, defaultMethods))
	}

	return &descriptor.AnalysisResult{
		Language:  string(lang.Python),
		Framework: "flask",
		AppName:   a.cfg.EffectiveAppName(a.symbols.primary()),
		Functions: functions,
	}
}

func (a *Analyzer) workers(files int) int {
	n := a.cfg.EffectiveWorkers()
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if files < n {
		n = files
	}
	if n < 1 {
		n = 1
	}
	return n
}
