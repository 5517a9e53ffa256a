// Package schema loads a GraphQL schema and checks canonical property types
// against it.
package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/propfrag/propfrag/internal/compiler/types"
)

// Catalog is a loaded schema. It is read-only after loading and safe for
// concurrent use.
type Catalog struct {
	schema *ast.Schema
	source string
}

// FromSchema wraps an already built schema.
func FromSchema(s *ast.Schema, source string) *Catalog {
	return &Catalog{schema: s, source: source}
}

// Load reads a schema file. SDL is expected for .graphql, .graphqls and .gql
// files, an introspection result for .json.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadIntrospection(path, data)
	case ".graphql", ".graphqls", ".gql":
		return LoadSDL(path, string(data))
	}
	return nil, fmt.Errorf("unsupported schema format %q (want .graphql, .graphqls, .gql or .json)", filepath.Ext(path))
}

// LoadSDL parses schema definition language text.
func LoadSDL(name, sdl string) (*Catalog, error) {
	s, err := gqlparser.LoadSchema(&ast.Source{Name: name, Input: sdl})
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", name, err)
	}
	return FromSchema(s, name), nil
}

// Source returns the name the catalog was loaded from.
func (c *Catalog) Source() string {
	return c.source
}

// Schema exposes the underlying gqlparser schema.
func (c *Catalog) Schema() *ast.Schema {
	return c.schema
}

// Lookup returns the definition named name.
func (c *Catalog) Lookup(name string) (*ast.Definition, bool) {
	def, ok := c.schema.Types[name]
	return def, ok && def != nil
}

// IsObjectLike reports whether def can be the target of a fragment.
func IsObjectLike(def *ast.Definition) bool {
	return def.Kind == ast.Object || def.Kind == ast.Interface
}

// Canonical converts an object or interface type into a non-null canonical
// object.
func (c *Catalog) Canonical(typeName string) (*types.ObjectType, error) {
	def, ok := c.Lookup(typeName)
	if !ok {
		return nil, fmt.Errorf("schema has no type named %s", typeName)
	}
	if !IsObjectLike(def) {
		return nil, fmt.Errorf("schema type %s is a %s, not an object type", typeName, def.Kind)
	}
	return c.newConverter().object(def, false), nil
}

// converter builds one canonical tree. Trees may be cyclic, so objects are
// memoized per type and nullability for the lifetime of a single conversion.
type converter struct {
	catalog *Catalog
	memo    map[memoKey]*types.ObjectType
}

type memoKey struct {
	name     string
	nullable bool
}

func (c *Catalog) newConverter() *converter {
	return &converter{catalog: c, memo: make(map[memoKey]*types.ObjectType)}
}

func (cv *converter) object(def *ast.Definition, nullable bool) *types.ObjectType {
	key := memoKey{name: def.Name, nullable: nullable}
	if obj, ok := cv.memo[key]; ok {
		return obj
	}
	obj := types.NewObject(nullable)
	cv.memo[key] = obj

	fields := make([]*types.Field, 0, len(def.Fields))
	for _, f := range def.Fields {
		if strings.HasPrefix(f.Name, "__") {
			continue
		}
		fields = append(fields, types.NewField(f.Name, cv.convert(f.Type)))
	}
	obj.Fields = fields
	return obj
}

func (cv *converter) convert(t *ast.Type) types.Type {
	nullable := !t.NonNull
	if t.Elem != nil {
		return types.NewArray(cv.convert(t.Elem), nullable)
	}
	def, ok := cv.catalog.Lookup(t.NamedType)
	if ok && IsObjectLike(def) {
		return cv.object(def, nullable)
	}
	return types.NewScalar(scalarKind(t.NamedType), nullable)
}

func scalarKind(name string) types.Kind {
	switch name {
	case "Boolean":
		return types.KindBoolean
	case "Int", "Float":
		return types.KindNumber
	case "ID", "String":
		return types.KindString
	}
	return types.KindAny
}

// TypeNames returns the names of all object and interface types that are not
// introspection types.
func (c *Catalog) TypeNames() []string {
	var names []string
	for name, def := range c.schema.Types {
		if strings.HasPrefix(name, "__") || def == nil || !IsObjectLike(def) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
