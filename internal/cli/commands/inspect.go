package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/propfrag/propfrag/internal/cli/ui"
	"github.com/propfrag/propfrag/internal/compiler/errors"
	"github.com/propfrag/propfrag/internal/compiler/transform"
	"github.com/propfrag/propfrag/internal/compiler/types"
)

type inspectOptions struct {
	component  string
	key        string
	schemaType string
	depth      int
}

// NewInspectCommand creates the inspect command
func NewInspectCommand(root *rootOptions) *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Show the canonical types propfrag derives",
		Long: `Show what propfrag sees in a file: the components it recognised and
the canonical type trees it renders fragments from.

Examples:
  # List components and their props types
  propfrag inspect src/Article.tsx

  # Show the whole props type of a component
  propfrag inspect src/Article.tsx --component Article

  # Show the tree a marker under the "article" key would render
  propfrag inspect src/Article.tsx --component Article --key article

  # Show a schema type
  propfrag inspect --schema-type Article --depth 2`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && opts.schemaType == "" {
				return fmt.Errorf("a file is required unless --schema-type is given")
			}
			if opts.key != "" && opts.component == "" {
				return fmt.Errorf("--key requires --component")
			}

			p, err := root.loadProject(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer p.logger.Sync()

			if opts.schemaType != "" {
				return inspectSchemaType(cmd.OutOrStdout(), p, opts)
			}
			return inspectFile(cmd, p, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.component, "component", "", "Component whose props type to show")
	cmd.Flags().StringVar(&opts.key, "key", "", "Props key to show (requires --component)")
	cmd.Flags().StringVar(&opts.schemaType, "schema-type", "", "Schema type to show")
	cmd.Flags().IntVar(&opts.depth, "depth", 3, "Nesting depth for schema types")

	return cmd
}

func inspectFile(cmd *cobra.Command, p *project, opts *inspectOptions, file string) error {
	tOpts, err := p.transformOptions(true)
	if err != nil {
		return reportSetupError(cmd.ErrOrStderr(), err)
	}

	path, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	session, err := transform.NewSession(runContext(cmd), tOpts, path, src)
	if err != nil {
		return reportSetupError(cmd.ErrOrStderr(), err)
	}

	out := cmd.OutOrStdout()
	if opts.component == "" {
		return listComponents(out, session, file)
	}

	if _, ok := session.Components.Lookup(opts.component); !ok {
		fmt.Fprint(cmd.ErrOrStderr(), ui.NotFound("Component", opts.component, session.Components.Names(),
			[]string{"List components: propfrag inspect " + file}, color.NoColor))
		return fmt.Errorf("component %s not found", opts.component)
	}

	var t types.Type
	if opts.key == "" {
		t, err = session.PropsType(opts.component)
	} else {
		t, err = session.FieldType(opts.component, opts.key)
	}
	if err != nil {
		if ce, ok := errors.As(err); ok && ce.Code == errors.ErrUnknownProperty {
			props, _ := session.PropsType(opts.component)
			var keys []string
			if obj, ok := props.(*types.ObjectType); ok {
				keys = obj.FieldNames()
			}
			fmt.Fprint(cmd.ErrOrStderr(), ui.NotFound("Key", opts.key, keys, nil, color.NoColor))
			return fmt.Errorf("key %s not found on %s", opts.key, opts.component)
		}
		return reportSetupError(cmd.ErrOrStderr(), err)
	}
	return writeYAML(out, types.ToYAML(t))
}

func listComponents(w io.Writer, session *transform.Session, file string) error {
	names := session.Components.Names()
	if len(names) == 0 {
		fmt.Fprint(w, ui.Info(fmt.Sprintf("No components with a props type found in %s", file), color.NoColor))
		return nil
	}

	table := ui.NewTable(w, []string{"Component", "Props type", "Declared as"}, color.NoColor)
	for _, name := range names {
		assoc, _ := session.Components.Lookup(name)
		table.AddRow(name, assoc.PropsType, assoc.Shape.String())
	}
	table.Render()

	if session.Registry.Active() {
		fmt.Fprintln(w)
		kv := ui.NewKeyValueTable(w, color.NoColor)
		for _, imp := range session.Registry.MarkerImports() {
			for _, b := range imp.Markers {
				kv.AddRow("Marker", fmt.Sprintf("%s from %q", b.Local, imp.Import.Source))
			}
		}
		kv.AddRow("Registered types", fmt.Sprint(session.Registry.Len()))
		kv.Render()
	}
	return nil
}

func inspectSchemaType(w io.Writer, p *project, opts *inspectOptions) error {
	catalog, err := p.cfg.LoadSchema()
	if err != nil {
		return err
	}
	obj, err := catalog.Canonical(opts.schemaType)
	if err != nil {
		if _, ok := catalog.Lookup(opts.schemaType); !ok {
			fmt.Fprint(w, ui.NotFound("Schema type", opts.schemaType, catalog.TypeNames(), nil, color.NoColor))
		}
		return err
	}
	return writeYAML(w, types.ToYAMLDepth(obj, opts.depth))
}

func writeYAML(w io.Writer, node *yaml.Node) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return err
	}
	return enc.Close()
}
