// Package transform rewrites marker calls in component source files into
// GraphQL fragment templates. A Transformer handles one file at a time; the
// Coordinator runs many independent transforms for the CLI.
package transform

import (
	"bytes"
	"context"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/propfrag/propfrag/internal/compiler/codegen"
	"github.com/propfrag/propfrag/internal/compiler/errors"
	"github.com/propfrag/propfrag/internal/compiler/registry"
	"github.com/propfrag/propfrag/internal/compiler/schema"
	"github.com/propfrag/propfrag/internal/compiler/sourcemap"
	"github.com/propfrag/propfrag/internal/compiler/syntax"
	"github.com/propfrag/propfrag/internal/compiler/types"
)

// Fragment describes one generated fragment.
type Fragment struct {
	Component string
	Key       string
	TypeName  string
	Text      string
	Line      int
	Column    int
}

// Result is the outcome of transforming one file.
type Result struct {
	Path      string
	Output    []byte
	Changed   bool
	Fragments []Fragment
	SourceMap *sourcemap.SourceMap
	// Deps are the other files the transform read, the file's static imports.
	Deps []string
}

// Transformer rewrites marker calls. It is safe for concurrent use; each
// TransformFile call runs its own session.
type Transformer struct {
	opts Options
}

// New creates a transformer.
func New(opts Options) *Transformer {
	return &Transformer{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (t *Transformer) Options() Options {
	return t.opts
}

// edit replaces src[start:end] with text.
type edit struct {
	start, end uint32
	text       string
	name       string
	pos        syntax.Position
}

// TransformFile rewrites every marker call in src. A file that does not
// import a marker is returned unchanged. Any fatal error aborts the file.
func (t *Transformer) TransformFile(ctx context.Context, path string, src []byte) (*Result, error) {
	s, err := NewSession(ctx, t.opts, path, src)
	if err != nil {
		return nil, err
	}
	if !s.Registry.Active() {
		return &Result{Path: path, Output: src, Deps: s.Deps()}, nil
	}

	var edits []edit
	var fragments []Fragment
	for _, call := range s.markerCalls() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frag, replacement, err := s.generate(call)
		if err != nil {
			return nil, s.locate(err, call.node)
		}
		pos := syntax.PositionOf(call.node)
		frag.Line, frag.Column = pos.Line, pos.Column
		fragments = append(fragments, frag)
		edits = append(edits, edit{
			start: call.node.StartByte(),
			end:   call.node.EndByte(),
			text:  replacement,
			name:  frag.Key,
			pos:   pos,
		})
	}
	edits = append(edits, s.importRemovals()...)

	out, sm := apply(src, edits)
	sm.SourceFile = path
	return &Result{
		Path:      path,
		Output:    out,
		Changed:   true,
		Fragments: fragments,
		SourceMap: sm,
		Deps:      s.Deps(),
	}, nil
}

type markerCall struct {
	node *sitter.Node
	kind registry.MarkerKind
}

// markerCalls returns calls to imported markers in pre-order.
func (s *Session) markerCalls() []markerCall {
	bindings := s.Registry.MarkerBindings()
	var out []markerCall
	syntax.Walk(s.File.Root, func(n *sitter.Node) bool {
		if n.Type() != "call_expression" {
			return true
		}
		fn := n.ChildByFieldName("function")
		if fn == nil || fn.Type() != "identifier" {
			return true
		}
		kind, ok := bindings[s.File.Text(fn)]
		if !ok {
			return true
		}
		out = append(out, markerCall{node: n, kind: kind})
		return false
	})
	return out
}

// generate produces the replacement text for one marker call.
func (s *Session) generate(call markerCall) (Fragment, string, error) {
	key, _, ok := s.File.PairKeyOf(call.node)
	if !ok {
		return Fragment{}, "", errors.NewMarkerPlacement(errors.SourceLocation{}, "")
	}

	args := syntax.Arguments(call.node)
	var candidates []string
	var optsNode *sitter.Node
	switch call.kind {
	case registry.MarkerPropsFor:
		if len(args) == 0 {
			return Fragment{}, "", errors.NewMarkerPlacement(errors.SourceLocation{},
				"Marker call does not name its component")
		}
		candidates = unique(s.File.Identifiers(args[0]))
		if len(args) > 1 {
			optsNode = args[1]
		}
	default:
		container := s.container(call.node)
		if container == nil {
			return Fragment{}, "", errors.NewMarkerPlacement(errors.SourceLocation{},
				"Marker call is not inside a component container call")
		}
		candidates = unique(s.File.Identifiers(container))
		if len(args) > 0 {
			optsNode = args[0]
		}
	}

	component, propsType, ok := s.lookupComponent(candidates)
	if !ok {
		return Fragment{}, "", errors.NewPropTypesNotFound(errors.SourceLocation{}, candidates)
	}

	t, err := s.fieldType(propsType, key)
	if err != nil {
		return Fragment{}, "", err
	}

	req := s.request(optsNode)
	name := req.Name
	if name == "" {
		name = s.opts.Naming(component, key)
	}
	typeName := req.Type
	if typeName == "" {
		typeName = codegen.DefaultTypeName(key)
	}
	tag := req.TemplateTag
	if tag == "" {
		tag = s.opts.TemplateTag
	}

	if s.opts.Catalog != nil {
		mismatches, err := schema.Check(s.opts.Catalog, typeName, types.Unwrap(t))
		if err != nil {
			return Fragment{}, "", err
		}
		if len(mismatches) > 0 {
			return Fragment{}, "", schema.MismatchError(typeName, mismatches)
		}
	}

	var kids []codegen.Child
	for _, c := range s.Children.ForKey(key) {
		kids = append(kids, codegen.Child{Component: c, Key: key})
	}

	text := codegen.Render(t, name, typeName, req.Directives, kids, s.opts.Strategy)
	if s.opts.ValidateOutput {
		if err := codegen.Validate(text); err != nil {
			return Fragment{}, "", err
		}
	}

	s.logger.Debug("generated fragment",
		zap.String("component", component),
		zap.String("key", key),
		zap.String("type", typeName),
		zap.Int("children", len(kids)))

	return Fragment{Component: component, Key: key, TypeName: typeName, Text: text},
		codegen.Wrap(text, tag, s.opts.ArrowWrap), nil
}

// container returns the first argument of the nearest enclosing two-argument
// call whose second argument holds n: `Relay.createContainer(Article, {...})`,
// `connect()(Article)` shapes included.
func (s *Session) container(n *sitter.Node) *sitter.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() != "call_expression" {
			continue
		}
		args := syntax.Arguments(p)
		if len(args) == 2 && syntax.Contains(args[1], n) {
			return args[0]
		}
	}
	return nil
}

// lookupComponent returns the first candidate with a known props type.
func (s *Session) lookupComponent(candidates []string) (string, string, bool) {
	for _, c := range candidates {
		if assoc, ok := s.Components.Lookup(c); ok {
			return c, assoc.PropsType, true
		}
	}
	return "", "", false
}

// importRemovals deletes marker imports: the whole statement when every
// binding is a marker, otherwise just the marker specifiers.
func (s *Session) importRemovals() []edit {
	src := s.File.Source
	var out []edit
	for _, mi := range s.Registry.MarkerImports() {
		stmt := mi.Import.Node
		if len(mi.Markers) == len(mi.Import.Bindings) {
			end := stmt.EndByte()
			if int(end) < len(src) && src[end] == '\r' {
				end++
			}
			if int(end) < len(src) && src[end] == '\n' {
				end++
			}
			out = append(out, edit{start: stmt.StartByte(), end: end, pos: syntax.PositionOf(stmt)})
			continue
		}
		for _, b := range mi.Markers {
			start, end := specifierRange(src, b.Specifier)
			out = append(out, edit{start: start, end: end, pos: syntax.PositionOf(b.Specifier)})
		}
	}
	return out
}

// specifierRange extends a specifier over its separating comma.
func specifierRange(src []byte, n *sitter.Node) (uint32, uint32) {
	start, end := int(n.StartByte()), int(n.EndByte())
	after := end
	for after < len(src) && (src[after] == ' ' || src[after] == '\t') {
		after++
	}
	if after < len(src) && src[after] == ',' {
		after++
		for after < len(src) && (src[after] == ' ' || src[after] == '\t') {
			after++
		}
		return uint32(start), uint32(after)
	}
	before := start
	for before > 0 && (src[before-1] == ' ' || src[before-1] == '\t') {
		before--
	}
	if before > 0 && src[before-1] == ',' {
		return uint32(before - 1), uint32(end)
	}
	return uint32(start), uint32(end)
}

// apply splices edits into src and records a source map entry for each.
func apply(src []byte, edits []edit) ([]byte, *sourcemap.SourceMap) {
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	sm := sourcemap.New("", "")
	var out bytes.Buffer
	out.Grow(len(src))
	cursor := uint32(0)
	for _, e := range edits {
		if e.start < cursor {
			continue
		}
		out.Write(src[cursor:e.start])
		line, col := position(out.Bytes())
		out.WriteString(e.text)
		cursor = e.end

		sm.Add(&sourcemap.Mapping{
			SourceLine:      e.pos.Line,
			SourceColumn:    e.pos.Column,
			SourceSpan:      bytes.Count(src[e.start:e.end], []byte("\n")),
			GeneratedLine:   line,
			GeneratedColumn: col,
			GeneratedSpan:   bytes.Count([]byte(e.text), []byte("\n")),
			Name:            e.name,
		})
	}
	out.Write(src[cursor:])
	return out.Bytes(), sm
}

// position returns the 1-indexed line and column just past buf.
func position(buf []byte) (int, int) {
	line := bytes.Count(buf, []byte("\n")) + 1
	col := len(buf) - bytes.LastIndexByte(buf, '\n')
	return line, col
}

func unique(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
