package transform

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/propfrag/propfrag/internal/compiler/codegen"
	"github.com/propfrag/propfrag/internal/compiler/syntax"
)

// request reads the options object of a marker call. Keys that are not
// literals are ignored.
func (s *Session) request(opts *sitter.Node) codegen.Request {
	var req codegen.Request
	if opts == nil || opts.Type() != "object" {
		return req
	}
	f := s.File
	for _, p := range f.Pairs(opts) {
		switch p.Key {
		case "name":
			req.Name = s.stringOption(p.Value)
		case "type":
			req.Type = s.stringOption(p.Value)
		case "templateTag":
			req.TemplateTag = s.stringOption(p.Value)
		case "directives":
			req.Directives = s.directives(p.Value)
		}
	}
	return req
}

func (s *Session) stringOption(n *sitter.Node) string {
	v, ok := s.File.LiteralValue(n)
	if !ok || v.Kind != syntax.LiteralString {
		return ""
	}
	return v.Str
}

// directives reads `{ name: { arg: literal } }`.
func (s *Session) directives(n *sitter.Node) codegen.Directives {
	f := s.File
	if n == nil || n.Type() != "object" {
		return nil
	}
	out := make(codegen.Directives)
	for _, d := range f.Pairs(n) {
		args := make(map[string]codegen.Value)
		for _, a := range f.Pairs(d.Value) {
			v, ok := f.LiteralValue(a.Value)
			if !ok {
				continue
			}
			args[a.Key] = literal(v)
		}
		out[d.Key] = args
	}
	return out
}

func literal(v syntax.Value) codegen.Value {
	switch v.Kind {
	case syntax.LiteralNumber:
		return codegen.Value{Kind: codegen.ValueNumber, Text: v.Str}
	case syntax.LiteralBoolean:
		return codegen.Value{Kind: codegen.ValueBoolean, Text: v.Str}
	default:
		return codegen.Value{Kind: codegen.ValueString, Text: v.Str}
	}
}
