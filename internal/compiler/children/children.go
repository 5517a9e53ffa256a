// Package children discovers, for every component rendered as a JSX element,
// which property keys the component's own file already turns into fragments.
// The parent fragment splices those child fragments in at the matching key.
package children

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/propfrag/propfrag/internal/compiler/registry"
	"github.com/propfrag/propfrag/internal/compiler/resolve"
	"github.com/propfrag/propfrag/internal/compiler/syntax"
)

// Entry is one child component and its fragment keys in source order.
type Entry struct {
	Component string // the parent's local tag name
	Source    string // resolved path of the child file
	Keys      []string
}

// HasKey reports whether the child declares a fragment for key.
func (e Entry) HasKey(key string) bool {
	for _, k := range e.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Index is the child-fragment index of one file, ordered by first JSX
// appearance.
type Index struct {
	entries []Entry
}

// Entries returns every indexed child.
func (ix *Index) Entries() []Entry {
	if ix == nil {
		return nil
	}
	return ix.entries
}

// Keys returns the fragment keys known for component.
func (ix *Index) Keys(component string) []string {
	for _, e := range ix.Entries() {
		if e.Component == component {
			return e.Keys
		}
	}
	return nil
}

// ForKey returns the children that declare a fragment at key, in render order.
func (ix *Index) ForKey(key string) []string {
	var out []string
	for _, e := range ix.Entries() {
		if e.HasKey(key) {
			out = append(out, e.Component)
		}
	}
	return out
}

// Build indexes the JSX children of file that are bound by value imports.
func Build(ctx context.Context, file *syntax.File, loader *resolve.Loader, markers registry.Markers, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	ix := &Index{}
	if loader == nil {
		return ix
	}

	imports := valueImports(file)
	for _, tag := range file.JSXTagNames() {
		imp, ok := imports[tag]
		if !ok {
			continue
		}
		child, ok := loader.Import(ctx, file, imp.source)
		if !ok {
			continue
		}

		found := scanFile(child, markers)
		keys := pick(found, tag, imp.imported)
		if len(keys) == 0 {
			continue
		}
		logger.Debug("indexed child fragments",
			zap.String("component", tag),
			zap.String("file", child.Path),
			zap.Strings("keys", keys))
		ix.entries = append(ix.entries, Entry{Component: tag, Source: child.Path, Keys: keys})
	}
	return ix
}

type valueImport struct {
	source   string
	imported string
}

func valueImports(file *syntax.File) map[string]valueImport {
	out := make(map[string]valueImport)
	for _, imp := range file.Imports() {
		for _, b := range imp.Bindings {
			if imp.IsTypeBinding(b) || b.Imported == "*" {
				continue
			}
			out[b.Local] = valueImport{source: imp.Source, imported: b.Imported}
		}
	}
	return out
}

// pick maps keys recorded under the child's own component names to the
// parent's tag.
func pick(found *keySets, tag, imported string) []string {
	if imported != "default" {
		return found.get(imported)
	}
	if keys := found.get(tag); len(keys) > 0 {
		return keys
	}
	if len(found.order) == 1 {
		return found.get(found.order[0])
	}
	return nil
}

// keySets records ordered key sets per component name.
type keySets struct {
	byName map[string][]string
	order  []string
}

func (k *keySets) add(component string, keys ...string) {
	existing, ok := k.byName[component]
	if !ok {
		k.order = append(k.order, component)
	}
	for _, key := range keys {
		if !contains(existing, key) {
			existing = append(existing, key)
		}
	}
	k.byName[component] = existing
}

func (k *keySets) get(component string) []string {
	return k.byName[component]
}

// scanFile looks for container calls `create(Comp, { fragments: {...} })` and
// explicit marker calls `{ key: markerFor(Comp) }`.
func scanFile(file *syntax.File, markers registry.Markers) *keySets {
	found := &keySets{byName: make(map[string][]string)}
	forNames := markerForNames(file, markers)

	syntax.Walk(file.Root, func(n *sitter.Node) bool {
		if n.Type() != "call_expression" {
			return true
		}
		args := syntax.Arguments(n)

		if component, keys, ok := containerKeys(file, args); ok {
			found.add(component, keys...)
		}

		if forNames[file.CalleeName(n)] && len(args) > 0 && args[0].Type() == "identifier" {
			if obj := syntax.EnclosingOf(n, "object"); obj != nil {
				found.add(file.Text(args[0]), file.Keys(obj)...)
			}
		}
		return true
	})
	return found
}

// containerKeys matches a two-argument call whose second argument carries a
// `fragments` object.
func containerKeys(file *syntax.File, args []*sitter.Node) (string, []string, bool) {
	if len(args) != 2 || args[0].Type() != "identifier" || args[1].Type() != "object" {
		return "", nil, false
	}
	fragments := file.Lookup(args[1], "fragments")
	if fragments == nil || fragments.Type() != "object" {
		return "", nil, false
	}
	return file.Text(args[0]), file.Keys(fragments), true
}

// markerForNames returns the local names bound to the explicit marker. The
// configured name itself always counts so unimported helpers still index.
func markerForNames(file *syntax.File, markers registry.Markers) map[string]bool {
	names := map[string]bool{markers.PropsFor: true}
	for _, imp := range file.Imports() {
		for _, b := range imp.Bindings {
			if markers.KindOf(b) == registry.MarkerPropsFor {
				names[b.Local] = true
			}
		}
	}
	return names
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
