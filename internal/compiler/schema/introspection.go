package schema

import (
	"encoding/json"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
)

// introspection result shapes, limited to what the catalog reads.
type introspectionResult struct {
	Data   *introspectionData `json:"data"`
	Schema *introspectionSchema `json:"__schema"`
}

type introspectionData struct {
	Schema *introspectionSchema `json:"__schema"`
}

type introspectionSchema struct {
	QueryType        *typeName           `json:"queryType"`
	MutationType     *typeName           `json:"mutationType"`
	SubscriptionType *typeName           `json:"subscriptionType"`
	Types            []introspectionType `json:"types"`
}

type typeName struct {
	Name string `json:"name"`
}

type introspectionType struct {
	Kind          string               `json:"kind"`
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	Fields        []introspectionField `json:"fields"`
	Interfaces    []typeRef            `json:"interfaces"`
	PossibleTypes []typeRef            `json:"possibleTypes"`
	EnumValues    []struct {
		Name string `json:"name"`
	} `json:"enumValues"`
}

type introspectionField struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Type        typeRef `json:"type"`
}

type typeRef struct {
	Kind   string   `json:"kind"`
	Name   string   `json:"name"`
	OfType *typeRef `json:"ofType"`
}

// LoadIntrospection builds a catalog from an introspection query result,
// either wrapped in `data` or bare.
func LoadIntrospection(name string, data []byte) (*Catalog, error) {
	var res introspectionResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parse introspection %s: %w", name, err)
	}
	raw := res.Schema
	if raw == nil && res.Data != nil {
		raw = res.Data.Schema
	}
	if raw == nil {
		return nil, fmt.Errorf("parse introspection %s: no __schema object", name)
	}

	s := &ast.Schema{
		Types:         make(map[string]*ast.Definition, len(raw.Types)),
		Directives:    make(map[string]*ast.DirectiveDefinition),
		PossibleTypes: make(map[string][]*ast.Definition),
		Implements:    make(map[string][]*ast.Definition),
	}
	for _, it := range raw.Types {
		if it.Name == "" {
			continue
		}
		s.Types[it.Name] = definitionFrom(it)
	}
	for _, it := range raw.Types {
		def := s.Types[it.Name]
		if def == nil {
			continue
		}
		for _, iface := range it.Interfaces {
			if target := s.Types[iface.Name]; target != nil {
				s.AddImplements(def.Name, target)
				s.AddPossibleType(iface.Name, def)
			}
		}
		for _, possible := range it.PossibleTypes {
			if target := s.Types[possible.Name]; target != nil && def.Kind == ast.Union {
				s.AddPossibleType(def.Name, target)
			}
		}
	}

	s.Query = rootType(s, raw.QueryType)
	s.Mutation = rootType(s, raw.MutationType)
	s.Subscription = rootType(s, raw.SubscriptionType)

	return FromSchema(s, name), nil
}

func definitionFrom(it introspectionType) *ast.Definition {
	def := &ast.Definition{
		Kind:        ast.DefinitionKind(it.Kind),
		Name:        it.Name,
		Description: it.Description,
	}
	for _, f := range it.Fields {
		def.Fields = append(def.Fields, &ast.FieldDefinition{
			Name:        f.Name,
			Description: f.Description,
			Type:        astType(&f.Type),
		})
	}
	for _, iface := range it.Interfaces {
		def.Interfaces = append(def.Interfaces, iface.Name)
	}
	for _, possible := range it.PossibleTypes {
		def.Types = append(def.Types, possible.Name)
	}
	for _, v := range it.EnumValues {
		def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{Name: v.Name})
	}
	return def
}

// astType unwraps NON_NULL and LIST wrappers into a gqlparser type.
func astType(ref *typeRef) *ast.Type {
	if ref == nil {
		return &ast.Type{}
	}
	switch ref.Kind {
	case "NON_NULL":
		inner := astType(ref.OfType)
		inner.NonNull = true
		return inner
	case "LIST":
		return &ast.Type{Elem: astType(ref.OfType)}
	}
	return &ast.Type{NamedType: ref.Name}
}

func rootType(s *ast.Schema, ref *typeName) *ast.Definition {
	if ref == nil {
		return nil
	}
	return s.Types[ref.Name]
}
