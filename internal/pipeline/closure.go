package pipeline

import "sort"

// pythonBuiltins are call targets never treated as project functions
// during closure resolution.
var pythonBuiltins = map[string]bool{
	"print": true, "len": true, "str": true, "int": true, "float": true,
	"list": true, "dict": true, "set": true, "bool": true, "type": true,
	"open": true, "sum": true, "min": true, "max": true, "sorted": true,
	"enumerate": true, "zip": true, "filter": true, "map": true,
}

// resolveClosure walks the call graph from a route function and returns
// every cataloged function reachable from it, sorted by name. The route
// itself and built-ins stay out of the set, and a visited guard makes
// recursion cycles terminate.
func resolveClosure(start string, cat *catalog) []string {
	visited := map[string]bool{start: true}
	resolved := map[string]bool{}
	work := []string{start}

	for len(work) > 0 {
		name := work[len(work)-1]
		work = work[:len(work)-1]
		rec, ok := cat.get(name)
		if !ok {
			continue
		}
		for _, dep := range rec.Calls {
			if pythonBuiltins[dep] || dep == start {
				continue
			}
			if _, inCatalog := cat.get(dep); !inCatalog {
				continue
			}
			resolved[dep] = true
			if !visited[dep] {
				visited[dep] = true
				work = append(work, dep)
			}
		}
	}

	deps := make([]string, 0, len(resolved))
	for name := range resolved {
		deps = append(deps, name)
	}
	sort.Strings(deps)
	return deps
}
