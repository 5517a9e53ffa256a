package cache

import (
	"sort"
	"sync"
)

type pathSet map[string]struct{}

func (s pathSet) sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// DependencyGraph records which files each transform read (imported type
// files and child components). Watch mode walks it backwards to find every
// file affected by a change.
type DependencyGraph struct {
	mu      sync.RWMutex
	files   pathSet
	imports map[string]pathSet // file -> files it read
	readers map[string]pathSet // file -> files that read it
}

// NewDependencyGraph creates an empty graph
func NewDependencyGraph() *DependencyGraph {
	dg := &DependencyGraph{}
	dg.reset()
	return dg
}

func (dg *DependencyGraph) reset() {
	dg.files = make(pathSet)
	dg.imports = make(map[string]pathSet)
	dg.readers = make(map[string]pathSet)
}

// AddFile records a file without edges
func (dg *DependencyGraph) AddFile(path string) {
	dg.mu.Lock()
	defer dg.mu.Unlock()
	dg.files[path] = struct{}{}
}

// AddDependency records that from read to. Self edges are ignored.
func (dg *DependencyGraph) AddDependency(from, to string) {
	dg.mu.Lock()
	defer dg.mu.Unlock()
	dg.link(from, to)
}

func (dg *DependencyGraph) link(from, to string) {
	dg.files[from] = struct{}{}
	if from == to {
		return
	}
	dg.files[to] = struct{}{}
	addEdge(dg.imports, from, to)
	addEdge(dg.readers, to, from)
}

// SetDependencies replaces the outgoing edges of path. Each transform
// reports the full set of files it read, so stale edges are dropped.
func (dg *DependencyGraph) SetDependencies(path string, deps []string) {
	dg.mu.Lock()
	defer dg.mu.Unlock()

	for old := range dg.imports[path] {
		removeEdge(dg.readers, old, path)
	}
	delete(dg.imports, path)
	dg.files[path] = struct{}{}
	for _, d := range deps {
		dg.link(path, d)
	}
}

// GetDependencies returns the files path read, sorted
func (dg *DependencyGraph) GetDependencies(path string) []string {
	dg.mu.RLock()
	defer dg.mu.RUnlock()
	return dg.imports[path].sorted()
}

// GetDependents returns the files that read path, sorted
func (dg *DependencyGraph) GetDependents(path string) []string {
	dg.mu.RLock()
	defer dg.mu.RUnlock()
	return dg.readers[path].sorted()
}

// GetTransitiveDependents returns every file that reads path directly or
// through other files, sorted. Cycles are tolerated and path itself is
// never included.
func (dg *DependencyGraph) GetTransitiveDependents(path string) []string {
	dg.mu.RLock()
	defer dg.mu.RUnlock()

	seen := pathSet{path: {}}
	found := make(pathSet)
	queue := []string{path}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for reader := range dg.readers[next] {
			if _, ok := seen[reader]; ok {
				continue
			}
			seen[reader] = struct{}{}
			found[reader] = struct{}{}
			queue = append(queue, reader)
		}
	}
	return found.sorted()
}

// RemoveFile drops path and every edge touching it
func (dg *DependencyGraph) RemoveFile(path string) {
	dg.mu.Lock()
	defer dg.mu.Unlock()

	for dep := range dg.imports[path] {
		removeEdge(dg.readers, dep, path)
	}
	for reader := range dg.readers[path] {
		removeEdge(dg.imports, reader, path)
	}
	delete(dg.imports, path)
	delete(dg.readers, path)
	delete(dg.files, path)
}

// Clear empties the graph
func (dg *DependencyGraph) Clear() {
	dg.mu.Lock()
	defer dg.mu.Unlock()
	dg.reset()
}

// Size returns the number of known files
func (dg *DependencyGraph) Size() int {
	dg.mu.RLock()
	defer dg.mu.RUnlock()
	return len(dg.files)
}

func addEdge(edges map[string]pathSet, from, to string) {
	set, ok := edges[from]
	if !ok {
		set = make(pathSet)
		edges[from] = set
	}
	set[to] = struct{}{}
}

func removeEdge(edges map[string]pathSet, from, to string) {
	set := edges[from]
	delete(set, to)
	if len(set) == 0 {
		delete(edges, from)
	}
}
