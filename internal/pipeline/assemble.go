package pipeline

import (
	"github.com/autodeployr/flask-analyzer/internal/descriptor"
)

// assemble builds the final immutable descriptor for one route
// occurrence. Every collection field comes out non-nil and the method
// list is never empty.
func assemble(route routeRecord, fileImports []importEntry, cat *catalog, envVars, defaultMethods []string) *descriptor.ServerlessFunction {
	rec := route.Rec
	deps := resolveClosure(route.Function, cat)
	imports := sliceImports(rec, fileImports, deps, cat)

	methods := make([]string, 0, len(route.Methods))
	methods = append(methods, route.Methods...)
	if len(methods) == 0 {
		methods = append(methods, defaultMethods...)
	}

	depSources := make(map[string]string, len(deps))
	for _, dep := range deps {
		if d, ok := cat.get(dep); ok && d.Source != "" {
			depSources[dep] = d.Source
		}
	}

	env := make([]string, 0, len(envVars))
	env = append(env, envVars...)

	return &descriptor.ServerlessFunction{
		Name:              route.Function,
		Path:              route.Path,
		Methods:           methods,
		Source:            rec.Source,
		AppName:           route.AppName,
		Dependencies:      deps,
		DependencySources: depSources,
		Imports:           imports,
		EnvVars:           env,
		FilePath:          route.FilePath,
		LineNumber:        route.Line,
		RequiresDB:        rec.RequiresDB,
	}
}
