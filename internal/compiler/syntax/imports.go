package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Binding is one name introduced by an import statement.
type Binding struct {
	Imported  string // exported name; "default" for default imports, "*" for namespaces
	Local     string
	TypeOnly  bool
	Specifier *sitter.Node // import_specifier, identifier or namespace_import node
}

// Import is a parsed import statement.
type Import struct {
	Source   string
	TypeOnly bool // `import type` / `import typeof`
	Bindings []Binding
	Node     *sitter.Node
}

// IsTypeBinding reports whether b only brings a type into scope.
func (imp *Import) IsTypeBinding(b Binding) bool {
	return imp.TypeOnly || b.TypeOnly
}

// Imports returns the file's top-level import statements in source order.
func (f *File) Imports() []*Import {
	var out []*Import
	for _, stmt := range NamedChildren(f.Root) {
		if stmt.Type() != "import_statement" {
			continue
		}
		source := stmt.ChildByFieldName("source")
		if source == nil {
			continue
		}
		imp := &Import{
			Source:   f.Unquote(source),
			TypeOnly: HasAnonChild(stmt, "type") || HasAnonChild(stmt, "typeof"),
			Node:     stmt,
		}
		for _, c := range NamedChildren(stmt) {
			if c.Type() == "import_clause" {
				imp.Bindings = f.clauseBindings(c)
			}
		}
		out = append(out, imp)
	}
	return out
}

func (f *File) clauseBindings(clause *sitter.Node) []Binding {
	var out []Binding
	for _, c := range NamedChildren(clause) {
		switch c.Type() {
		case "identifier":
			out = append(out, Binding{Imported: "default", Local: f.Text(c), Specifier: c})
		case "namespace_import":
			if id := lastNamed(c); id != nil {
				out = append(out, Binding{Imported: "*", Local: f.Text(id), Specifier: c})
			}
		case "named_imports":
			for _, spec := range NamedChildren(c) {
				if spec.Type() != "import_specifier" {
					continue
				}
				name := spec.ChildByFieldName("name")
				if name == nil {
					continue
				}
				imported := f.Text(name)
				if name.Type() == "string" {
					imported = f.Unquote(name)
				}
				local := imported
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					local = f.Text(alias)
				}
				out = append(out, Binding{
					Imported:  imported,
					Local:     local,
					TypeOnly:  HasAnonChild(spec, "type") || HasAnonChild(spec, "typeof"),
					Specifier: spec,
				})
			}
		}
	}
	return out
}
