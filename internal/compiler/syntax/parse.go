// Package syntax is the parsing front end. It turns TypeScript/TSX source into
// tree-sitter syntax trees and offers the small set of node helpers the
// resolver, component scanner and transformer need.
package syntax

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Position is a 1-indexed line/column pair.
type Position struct {
	Line   int
	Column int
}

// File is a parsed source file. Source must not be modified after parsing;
// node offsets index into it.
type File struct {
	Path   string
	Source []byte
	Tree   *sitter.Tree
	Root   *sitter.Node
}

// languageFor picks the grammar for a path. Plain .ts files use the
// TypeScript grammar because TSX rejects `<T>expr` casts.
func languageFor(path string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	default:
		return tsx.GetLanguage()
	}
}

// Parse parses src. The returned file keeps src; callers pass a copy when
// they intend to reuse the buffer.
func Parse(ctx context.Context, path string, src []byte) (*File, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(languageFor(path))

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &File{
		Path:   path,
		Source: src,
		Tree:   tree,
		Root:   tree.RootNode(),
	}, nil
}

// HasErrors reports whether tree-sitter had to recover from syntax errors.
func (f *File) HasErrors() bool {
	return f.Root != nil && f.Root.HasError()
}

// FirstError returns the position of the first ERROR or MISSING node.
func (f *File) FirstError() (Position, bool) {
	var found *sitter.Node
	Walk(f.Root, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.Type() == "ERROR" || n.IsMissing() {
			found = n
			return false
		}
		return n.HasError()
	})
	if found == nil {
		return Position{}, false
	}
	return PositionOf(found), true
}

// Text returns the source text of n.
func (f *File) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(f.Source)
}

// PositionOf returns the 1-indexed start position of n.
func PositionOf(n *sitter.Node) Position {
	p := n.StartPoint()
	return Position{Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children.
func Walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		Walk(n.NamedChild(i), fn)
	}
}

// NamedChildren returns the named children of n.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

// HasAnonChild reports whether n has an unnamed child token with the given text
// (for example the `type` keyword of `import type`).
func HasAnonChild(n *sitter.Node, token string) bool {
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if !c.IsNamed() && c.Type() == token {
			return true
		}
	}
	return false
}

// Unquote strips the quotes from a string literal node's text.
func (f *File) Unquote(n *sitter.Node) string {
	s := f.Text(n)
	if len(s) >= 2 {
		q := s[0]
		if (q == '"' || q == '\'' || q == '`') && s[len(s)-1] == q {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// TopLevel returns the program's top-level statements with export wrappers
// unwrapped to the declaration they carry.
func (f *File) TopLevel() []*sitter.Node {
	var out []*sitter.Node
	for _, stmt := range NamedChildren(f.Root) {
		if stmt.Type() == "export_statement" {
			if decl := stmt.ChildByFieldName("declaration"); decl != nil {
				out = append(out, decl)
				continue
			}
		}
		out = append(out, stmt)
	}
	return out
}

// EnclosingOf walks up from n and returns the first ancestor of one of the given types.
func EnclosingOf(n *sitter.Node, nodeTypes ...string) *sitter.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		for _, t := range nodeTypes {
			if p.Type() == t {
				return p
			}
		}
	}
	return nil
}

// Contains reports whether inner lies within outer's byte range.
func Contains(outer, inner *sitter.Node) bool {
	return inner.StartByte() >= outer.StartByte() && inner.EndByte() <= outer.EndByte()
}
