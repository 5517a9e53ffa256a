// Package codegen renders canonical types into GraphQL fragment text and
// composes child component fragments through a pluggable strategy.
package codegen

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/propfrag/propfrag/internal/compiler/types"
)

// ValueKind classifies directive argument literals.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueNumber
	ValueBoolean
)

// Value is a literal directive argument.
type Value struct {
	Kind ValueKind
	Text string // unquoted for strings, verbatim otherwise
}

// String renders the value as a GraphQL literal.
func (v Value) String() string {
	if v.Kind == ValueString {
		return quote(v.Text)
	}
	return v.Text
}

// Directives maps directive names to their arguments.
type Directives map[string]map[string]Value

// Child is a component whose fragment for Key is spliced into the parent.
type Child struct {
	Component string
	Key       string
}

// Request holds the per-call fragment options.
type Request struct {
	Name        string
	Type        string
	TemplateTag string
	Directives  Directives
}

// Generator writes fragment text.
type Generator struct {
	buf    *bytes.Buffer
	indent int
}

// NewGenerator creates a new fragment generator
func NewGenerator() *Generator {
	return &Generator{buf: &bytes.Buffer{}}
}

// Render produces the fragment for t. An array root renders its element.
func Render(t types.Type, name, typeName string, directives Directives, children []Child, strategy Strategy) string {
	return NewGenerator().Render(t, name, typeName, directives, children, strategy)
}

// Render produces the fragment for t.
func (g *Generator) Render(t types.Type, name, typeName string, directives Directives, children []Child, strategy Strategy) string {
	g.reset()

	header := "fragment"
	if name != "" {
		header += " " + name
	}
	header += " on " + typeName
	if d := RenderDirectives(directives); d != "" {
		header += " " + d
	}
	g.writeLine("%s {", header)

	g.indent++
	if obj, ok := types.Unwrap(t).(*types.ObjectType); ok {
		g.writeFields(obj)
	}
	var outside []string
	if strategy != nil {
		for _, c := range children {
			if line, ok := strategy.Inside(c.Component, c.Key); ok {
				g.writeLine("%s", line)
			}
			if line, ok := strategy.Outside(c.Component, c.Key); ok {
				outside = append(outside, line)
			}
		}
	}
	g.indent--

	g.writeLine("}")
	for _, line := range outside {
		g.writeLine("%s", line)
	}
	return g.buf.String()
}

func (g *Generator) writeFields(obj *types.ObjectType) {
	for _, f := range obj.Fields {
		name := types.WireName(f)
		nested, ok := types.Unwrap(f.Type).(*types.ObjectType)
		if !ok {
			g.writeLine("%s", name)
			continue
		}
		g.writeLine("%s {", name)
		g.indent++
		g.writeFields(nested)
		g.indent--
		g.writeLine("}")
	}
}

func (g *Generator) reset() {
	g.buf.Reset()
	g.indent = 0
}

// writeLine writes a formatted line with two-space indentation per level
func (g *Generator) writeLine(format string, args ...interface{}) {
	g.buf.WriteString(strings.Repeat("  ", g.indent))
	fmt.Fprintf(g.buf, format, args...)
	g.buf.WriteString("\n")
}

// RenderDirectives renders `@a() @b(x: 2, y: 1)` with directives and
// arguments sorted by name.
func RenderDirectives(directives Directives) string {
	if len(directives) == 0 {
		return ""
	}
	names := make([]string, 0, len(directives))
	for name := range directives {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		args := directives[name]
		argNames := make([]string, 0, len(args))
		for arg := range args {
			argNames = append(argNames, arg)
		}
		sort.Strings(argNames)

		rendered := make([]string, 0, len(argNames))
		for _, arg := range argNames {
			rendered = append(rendered, fmt.Sprintf("%s: %s", arg, args[arg]))
		}
		parts = append(parts, fmt.Sprintf("@%s(%s)", name, strings.Join(rendered, ", ")))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
