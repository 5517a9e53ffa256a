package transform

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/propfrag/propfrag/internal/compiler/children"
	"github.com/propfrag/propfrag/internal/compiler/components"
	"github.com/propfrag/propfrag/internal/compiler/errors"
	"github.com/propfrag/propfrag/internal/compiler/normalize"
	"github.com/propfrag/propfrag/internal/compiler/registry"
	"github.com/propfrag/propfrag/internal/compiler/resolve"
	"github.com/propfrag/propfrag/internal/compiler/syntax"
	"github.com/propfrag/propfrag/internal/compiler/types"
)

// Session is the state of one top-level file transform. Everything it holds
// is discarded when the transform finishes.
type Session struct {
	ctx    context.Context
	opts   Options
	path   string
	logger *zap.Logger

	Loader     *resolve.Loader
	File       *syntax.File
	Registry   *registry.Registry
	Components *components.Associations
	Children   *children.Index

	normalizer *normalize.Normalizer
}

// NewSession parses src and scans imports and declarations. Children are
// indexed only when the file imports a marker.
func NewSession(ctx context.Context, opts Options, path string, src []byte) (*Session, error) {
	opts = opts.withDefaults()
	loader := resolve.NewLoader(resolve.NewResolver(opts.Resolve), opts.Logger)

	file, err := loader.Add(ctx, path, src)
	if err != nil {
		return nil, err
	}
	if file.HasErrors() {
		pos, _ := file.FirstError()
		return nil, errors.NewSyntaxError(errors.SourceLocation{Line: pos.Line, Column: pos.Column}, path).
			WithFile(path).
			WithSource(src)
	}

	s := &Session{
		ctx:    ctx,
		opts:   opts,
		path:   path,
		logger: opts.Logger.With(zap.String("file", path)),
		Loader: loader,
		File:   file,
	}

	s.Registry = registry.Build(ctx, file, loader, opts.Markers, s.logger)
	s.Components = components.NewResolver(opts.ComponentBases).Scan(file)
	s.normalizer = normalize.New(s.Registry, opts.AliasWrapper)
	if s.Registry.Active() {
		s.Children = children.Build(ctx, file, loader, opts.Markers, s.logger)
	}
	return s, nil
}

// Deps returns the other files this session loaded.
func (s *Session) Deps() []string {
	var out []string
	for _, p := range s.Loader.Files() {
		if p != s.File.Path {
			out = append(out, p)
		}
	}
	return out
}

// PropsType returns the canonical type of a component's whole props type.
func (s *Session) PropsType(component string) (types.Type, error) {
	assoc, ok := s.Components.Lookup(component)
	if !ok {
		return nil, errors.NewPropTypesNotFound(errors.SourceLocation{}, []string{component})
	}
	if _, err := s.propsObject(assoc.PropsType); err != nil {
		return nil, err
	}
	return s.normalizer.Resolve(assoc.PropsType, false)
}

// FieldType returns the canonical type of one props field, the tree a marker
// under key would render.
func (s *Session) FieldType(component, key string) (types.Type, error) {
	assoc, ok := s.Components.Lookup(component)
	if !ok {
		return nil, errors.NewPropTypesNotFound(errors.SourceLocation{}, []string{component})
	}
	return s.fieldType(assoc.PropsType, key)
}

// fieldType looks key up in the props type and normalizes only that field,
// so unrelated fields never fail the marker.
func (s *Session) fieldType(propsType, key string) (types.Type, error) {
	obj, err := s.propsObject(propsType)
	if err != nil {
		return nil, err
	}
	prop, ok := obj.Get(key)
	if !ok {
		return nil, errors.NewUnknownProperty(errors.SourceLocation{}, key, propsType, obj.Names())
	}

	t, err := s.normalizer.Normalize(prop.Type, false, "")
	if err != nil {
		return nil, err
	}
	if _, ok := types.Unwrap(t).(*types.ObjectType); !ok {
		return nil, errors.NewPropertyNotObject(errors.SourceLocation{}, key, propsType, t.Signature())
	}
	return t, nil
}

// propsObject follows alias references from name to an object literal type.
func (s *Session) propsObject(name string) (*syntax.ObjectLit, error) {
	chain := []string{name}
	current := name
	for {
		def, ok := s.Registry.Lookup(current)
		if !ok {
			return nil, errors.NewUnknownTypeAlias(errors.SourceLocation{}, current)
		}
		for {
			inner, ok := def.(*syntax.Nullable)
			if !ok {
				break
			}
			def = inner.Inner
		}
		switch d := def.(type) {
		case *syntax.ObjectLit:
			return d, nil
		case *syntax.Ref:
			for _, seen := range chain {
				if seen == d.Name {
					return nil, errors.NewCircularAlias(errors.SourceLocation{}, append(chain, d.Name))
				}
			}
			chain = append(chain, d.Name)
			current = d.Name
		default:
			return nil, errors.NewUnknownTypeAlias(errors.SourceLocation{}, current)
		}
	}
}

// locate attaches the file and the node's position to a compiler error that
// does not carry them yet.
func (s *Session) locate(err error, n *sitter.Node) error {
	ce, ok := errors.As(err)
	if !ok {
		return err
	}
	if ce.File == "" {
		ce.WithFile(s.path)
	}
	if ce.Location.Line == 0 && n != nil {
		pos := syntax.PositionOf(n)
		ce.WithLocation(pos.Line, pos.Column)
	}
	if ce.Context == nil {
		ce.WithSource(s.File.Source)
	}
	return ce
}
