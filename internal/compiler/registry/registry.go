// Package registry builds the per-session type registry: every named
// structural type visible from a file, including types pulled in through
// `import type` statements, plus the marker bindings that activate the
// transform.
package registry

import (
	"context"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/propfrag/propfrag/internal/compiler/resolve"
	"github.com/propfrag/propfrag/internal/compiler/syntax"
)

// MarkerKind distinguishes the two sentinel functions.
type MarkerKind int

const (
	// MarkerProps is the component-implicit marker, e.g. generateFragmentFromProps().
	MarkerProps MarkerKind = iota + 1
	// MarkerPropsFor names its component explicitly, e.g. generateFragmentFromPropsFor(Article).
	MarkerPropsFor
)

// Markers holds the configured sentinel names.
type Markers struct {
	Props    string
	PropsFor string
}

// DefaultMarkers are the names used when none are configured.
var DefaultMarkers = Markers{
	Props:    "generateFragmentFromProps",
	PropsFor: "generateFragmentFromPropsFor",
}

// KindOf matches a binding against the marker names. Default imports match on
// the local name, named imports on the exported name.
func (m Markers) KindOf(b syntax.Binding) MarkerKind {
	name := b.Imported
	if name == "default" {
		name = b.Local
	}
	switch name {
	case m.Props:
		return MarkerProps
	case m.PropsFor:
		return MarkerPropsFor
	}
	return 0
}

// MarkerImport is an import statement binding at least one marker.
type MarkerImport struct {
	Import  *syntax.Import
	Markers []syntax.Binding
}

// Registry maps type names to their definitions. It is built once per
// session and never mutated afterwards; the first definition of a name wins.
type Registry struct {
	types         map[string]syntax.TypeExpr
	order         []string
	markers       map[string]MarkerKind
	markerImports []MarkerImport
}

func newRegistry() *Registry {
	return &Registry{
		types:   make(map[string]syntax.TypeExpr),
		markers: make(map[string]MarkerKind),
	}
}

// FromMap builds a registry from explicit definitions, registered in name order.
func FromMap(defs map[string]syntax.TypeExpr) *Registry {
	r := newRegistry()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.register(name, defs[name])
	}
	return r
}

func (r *Registry) register(name string, def syntax.TypeExpr) bool {
	if _, exists := r.types[name]; exists {
		return false
	}
	r.types[name] = def
	r.order = append(r.order, name)
	return true
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (syntax.TypeExpr, bool) {
	def, ok := r.types[name]
	return def, ok
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	return len(r.order)
}

// MarkerKind returns the marker bound to a local identifier, if any.
func (r *Registry) MarkerKind(local string) (MarkerKind, bool) {
	k, ok := r.markers[local]
	return k, ok
}

// MarkerBindings returns a copy of the local marker names and their kinds.
func (r *Registry) MarkerBindings() map[string]MarkerKind {
	out := make(map[string]MarkerKind, len(r.markers))
	for k, v := range r.markers {
		out[k] = v
	}
	return out
}

// Active reports whether the file imports a marker at all.
func (r *Registry) Active() bool {
	return len(r.markers) > 0
}

// MarkerImports returns the import statements that bind markers.
func (r *Registry) MarkerImports() []MarkerImport {
	return r.markerImports
}

// builder carries the state of one Build call.
type builder struct {
	ctx     context.Context
	loader  *resolve.Loader
	logger  *zap.Logger
	reg     *Registry
	visited map[string]bool
}

// Build scans file for type declarations, type imports and marker imports.
func Build(ctx context.Context, file *syntax.File, loader *resolve.Loader, markers Markers, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &builder{
		ctx:     ctx,
		loader:  loader,
		logger:  logger,
		reg:     newRegistry(),
		visited: make(map[string]bool),
	}

	for _, d := range declarations(file) {
		b.reg.register(d.name, d.def)
	}

	for _, imp := range file.Imports() {
		var found []syntax.Binding
		var requests []request
		for _, binding := range imp.Bindings {
			if kind := markers.KindOf(binding); kind != 0 {
				b.reg.markers[binding.Local] = kind
				found = append(found, binding)
				continue
			}
			if imp.IsTypeBinding(binding) && binding.Imported != "*" {
				requests = append(requests, request{local: binding.Local, imported: binding.Imported})
			}
		}
		if len(found) > 0 {
			b.reg.markerImports = append(b.reg.markerImports, MarkerImport{Import: imp, Markers: found})
		}
		if len(requests) > 0 && loader != nil {
			target, ok := loader.Import(ctx, file, imp.Source)
			if !ok {
				continue
			}
			b.extract(target, requests)
		}
	}

	return b.reg
}

// request asks for the type exported as imported, to be registered as local.
type request struct {
	local    string
	imported string
}

// extract registers the requested names from target, following the names
// their definitions reference and any re-imports inside target.
func (b *builder) extract(target *syntax.File, requests []request) {
	decls := declMap(target)
	queue := append([]request(nil), requests...)

	for len(queue) > 0 {
		req := queue[0]
		queue = queue[1:]

		key := target.Path + "\x00" + req.imported + "\x00" + req.local
		if b.visited[key] {
			continue
		}
		b.visited[key] = true

		if def, ok := decls[req.imported]; ok {
			if b.reg.register(req.local, def) {
				b.logger.Debug("registered imported type",
					zap.String("name", req.local),
					zap.String("from", target.Path))
			}
			for _, ref := range References(def) {
				queue = append(queue, request{local: ref, imported: ref})
			}
			continue
		}

		b.followReimport(target, req)
	}
}

// followReimport handles a name that target itself imports from elsewhere.
func (b *builder) followReimport(target *syntax.File, req request) {
	if b.loader == nil {
		return
	}
	for _, imp := range target.Imports() {
		for _, binding := range imp.Bindings {
			if binding.Local != req.imported || binding.Imported == "*" {
				continue
			}
			next, ok := b.loader.Import(b.ctx, target, imp.Source)
			if !ok {
				return
			}
			b.extract(next, []request{{local: req.local, imported: binding.Imported}})
			return
		}
	}
}

// References returns the named types a definition refers to.
func References(def syntax.TypeExpr) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(syntax.TypeExpr)
	walk = func(e syntax.TypeExpr) {
		switch v := e.(type) {
		case *syntax.Ref:
			if !seen[v.Name] {
				seen[v.Name] = true
				out = append(out, v.Name)
			}
			for _, a := range v.Args {
				walk(a)
			}
		case *syntax.ObjectLit:
			for _, p := range v.Props {
				walk(p.Type)
			}
		case *syntax.ArrayOf:
			walk(v.Elem)
		case *syntax.Nullable:
			walk(v.Inner)
		}
	}
	walk(def)
	return out
}

type namedDecl struct {
	name string
	def  syntax.TypeExpr
}

// declarations returns the top-level type aliases and interfaces of a file in
// source order.
func declarations(file *syntax.File) []namedDecl {
	var out []namedDecl
	for _, decl := range file.TopLevel() {
		if d, ok := convertDecl(file, decl); ok {
			out = append(out, d)
		}
	}
	return out
}

func convertDecl(file *syntax.File, decl *sitter.Node) (namedDecl, bool) {
	switch decl.Type() {
	case "type_alias_declaration":
		name := file.Text(decl.ChildByFieldName("name"))
		return namedDecl{name: name, def: file.ConvertType(decl.ChildByFieldName("value"))}, name != ""
	case "interface_declaration":
		name := file.Text(decl.ChildByFieldName("name"))
		return namedDecl{name: name, def: file.ConvertObject(decl.ChildByFieldName("body"))}, name != ""
	}
	return namedDecl{}, false
}

func declMap(file *syntax.File) map[string]syntax.TypeExpr {
	out := make(map[string]syntax.TypeExpr)
	for _, d := range declarations(file) {
		if _, exists := out[d.name]; !exists {
			out[d.name] = d.def
		}
	}
	return out
}
