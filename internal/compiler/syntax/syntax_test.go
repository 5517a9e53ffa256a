package syntax

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseTSX(t *testing.T, src string) *File {
	t.Helper()
	f, err := Parse(context.Background(), "component.tsx", []byte(src))
	require.NoError(t, err)
	require.False(t, f.HasErrors(), "fixture must parse cleanly")
	return f
}

func typeAlias(t *testing.T, f *File, name string) TypeExpr {
	t.Helper()
	for _, decl := range f.TopLevel() {
		if decl.Type() == "type_alias_declaration" && f.Text(decl.ChildByFieldName("name")) == name {
			return f.ConvertType(decl.ChildByFieldName("value"))
		}
	}
	t.Fatalf("type alias %s not found", name)
	return nil
}

func TestConvertType(t *testing.T) {
	f := parseTSX(t, `
type Scalars = { s: string; n?: number; b: boolean; a: any };
type Lists = { plain: string[]; generic: Array<Item>; ro: ReadonlyArray<Item> };
type Nulls = { one: string | null; two: Item | undefined; three: null | Item[] };
type Refs = { item: Item; renamed: AliasFor<'wire', string>; ns: models.Item };
type Unions = { mode: 'a' | 'b'; count: 1 | 2; mixed: 'a' | 1 };
export type Exported = { nested: { deep: (string) } };
`)

	scalars := typeAlias(t, f, "Scalars").(*ObjectLit)
	assert.Equal(t, []string{"s", "n", "b", "a"}, scalars.Names())
	n, ok := scalars.Get("n")
	require.True(t, ok)
	assert.True(t, n.Optional)
	assert.Equal(t, &Primitive{Name: "number"}, n.Type)
	a, _ := scalars.Get("a")
	assert.Equal(t, &Primitive{Name: "any"}, a.Type)

	lists := typeAlias(t, f, "Lists").(*ObjectLit)
	plain, _ := lists.Get("plain")
	assert.Equal(t, &ArrayOf{Elem: &Primitive{Name: "string"}}, plain.Type)
	generic, _ := lists.Get("generic")
	assert.Equal(t, &ArrayOf{Elem: &Ref{Name: "Item"}}, generic.Type)
	ro, _ := lists.Get("ro")
	assert.Equal(t, &ArrayOf{Elem: &Ref{Name: "Item"}}, ro.Type)

	nulls := typeAlias(t, f, "Nulls").(*ObjectLit)
	one, _ := nulls.Get("one")
	assert.Equal(t, &Nullable{Inner: &Primitive{Name: "string"}}, one.Type)
	two, _ := nulls.Get("two")
	assert.Equal(t, &Nullable{Inner: &Ref{Name: "Item"}}, two.Type)
	three, _ := nulls.Get("three")
	assert.Equal(t, &Nullable{Inner: &ArrayOf{Elem: &Ref{Name: "Item"}}}, three.Type)

	refs := typeAlias(t, f, "Refs").(*ObjectLit)
	renamed, _ := refs.Get("renamed")
	assert.Equal(t, &Ref{Name: "AliasFor", Args: []TypeExpr{
		&Literal{Kind: LiteralString, Value: "wire"},
		&Primitive{Name: "string"},
	}}, renamed.Type)
	ns, _ := refs.Get("ns")
	assert.Equal(t, &Ref{Name: "models.Item"}, ns.Type)

	unions := typeAlias(t, f, "Unions").(*ObjectLit)
	mode, _ := unions.Get("mode")
	assert.Equal(t, &Primitive{Name: "string"}, mode.Type)
	count, _ := unions.Get("count")
	assert.Equal(t, &Primitive{Name: "number"}, count.Type)
	mixed, _ := unions.Get("mixed")
	assert.IsType(t, &Unknown{}, mixed.Type)

	exported := typeAlias(t, f, "Exported").(*ObjectLit)
	nested, _ := exported.Get("nested")
	deep, _ := nested.Type.(*ObjectLit).Get("deep")
	assert.Equal(t, &Primitive{Name: "string"}, deep.Type)
}

func TestImports(t *testing.T) {
	f := parseTSX(t, `
import React, { Component } from "react";
import type { ArticleProps, Author as Writer } from "./types";
import { type Comment, render } from './comments';
import * as models from "../models";
import "./side-effect.css";
`)

	imports := f.Imports()
	require.Len(t, imports, 5)

	assert.Equal(t, "react", imports[0].Source)
	assert.False(t, imports[0].TypeOnly)
	require.Len(t, imports[0].Bindings, 2)
	assert.Equal(t, "default", imports[0].Bindings[0].Imported)
	assert.Equal(t, "React", imports[0].Bindings[0].Local)
	assert.Equal(t, "Component", imports[0].Bindings[1].Imported)

	assert.True(t, imports[1].TypeOnly)
	require.Len(t, imports[1].Bindings, 2)
	assert.Equal(t, "Author", imports[1].Bindings[1].Imported)
	assert.Equal(t, "Writer", imports[1].Bindings[1].Local)

	assert.False(t, imports[2].TypeOnly)
	require.Len(t, imports[2].Bindings, 2)
	assert.True(t, imports[2].IsTypeBinding(imports[2].Bindings[0]))
	assert.False(t, imports[2].IsTypeBinding(imports[2].Bindings[1]))

	require.Len(t, imports[3].Bindings, 1)
	assert.Equal(t, "*", imports[3].Bindings[0].Imported)
	assert.Equal(t, "models", imports[3].Bindings[0].Local)

	assert.Equal(t, "./side-effect.css", imports[4].Source)
	assert.Empty(t, imports[4].Bindings)
}

func findCall(f *File, callee string) *sitter.Node {
	var found *sitter.Node
	Walk(f.Root, func(n *sitter.Node) bool {
		if found == nil && n.Type() == "call_expression" && f.CalleeName(n) == callee {
			found = n
		}
		return found == nil
	})
	return found
}

func TestObjectLiteralsAndCalls(t *testing.T) {
	f := parseTSX(t, `
export default Relay.createContainer(connect()(Article), {
  fragments: {
    article: mark({ name: "frag", count: -2, flag: true, other: someVar, "quoted": 'x' }),
  },
});
`)

	container := findCall(f, "Relay.createContainer")
	require.NotNil(t, container)
	args := Arguments(container)
	require.Len(t, args, 2)
	assert.Equal(t, []string{"connect", "Article"}, f.Identifiers(args[0]))
	assert.Equal(t, []string{"fragments"}, f.Keys(args[1]))

	mark := findCall(f, "mark")
	require.NotNil(t, mark)
	key, pair, ok := f.PairKeyOf(mark)
	require.True(t, ok)
	assert.Equal(t, "article", key)
	assert.Equal(t, "pair", pair.Type())

	opts := Arguments(mark)[0]
	assert.Equal(t, []string{"name", "count", "flag", "other", "quoted"}, f.Keys(opts))

	v, ok := f.LiteralValue(f.Lookup(opts, "name"))
	require.True(t, ok)
	assert.Equal(t, Value{Kind: LiteralString, Raw: `"frag"`, Str: "frag"}, v)

	v, ok = f.LiteralValue(f.Lookup(opts, "count"))
	require.True(t, ok)
	assert.Equal(t, LiteralNumber, v.Kind)
	assert.Equal(t, "-2", v.Raw)

	v, ok = f.LiteralValue(f.Lookup(opts, "flag"))
	require.True(t, ok)
	assert.Equal(t, LiteralBoolean, v.Kind)

	_, ok = f.LiteralValue(f.Lookup(opts, "other"))
	assert.False(t, ok)

	v, ok = f.LiteralValue(f.Lookup(opts, "quoted"))
	require.True(t, ok)
	assert.Equal(t, "x", v.Str)
}

func TestJSXTagNames(t *testing.T) {
	f := parseTSX(t, `
const View = () => (
  <div>
    <ArticleTitle article={a} />
    <span>{a.x}</span>
    <ArticleBody article={a}></ArticleBody>
    <ArticleTitle article={b} />
  </div>
);
`)
	assert.Equal(t, []string{"ArticleTitle", "ArticleBody"}, f.JSXTagNames())
}

func TestSyntaxErrors(t *testing.T) {
	f, err := Parse(context.Background(), "broken.tsx", []byte("type X = {\nconst = ;\n"))
	require.NoError(t, err)
	assert.True(t, f.HasErrors())

	pos, ok := f.FirstError()
	if ok {
		assert.GreaterOrEqual(t, pos.Line, 1)
	}
}

func TestTypeScriptGrammarForTSFiles(t *testing.T) {
	f, err := Parse(context.Background(), "cast.ts", []byte("const x = <string>y;\n"))
	require.NoError(t, err)
	assert.False(t, f.HasErrors())
}
