package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/propfrag/propfrag/internal/cli/ui"
	"github.com/propfrag/propfrag/internal/compiler/errors"
	"github.com/propfrag/propfrag/internal/compiler/transform"
)

// NewCheckCommand creates the check command
func NewCheckCommand(root *rootOptions) *cobra.Command {
	var (
		jsonOut  bool
		noSchema bool
	)

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Validate marker calls without writing output",
		Long: `Run the full pipeline, including schema validation, and report every
error without writing any file. Exits with status 1 when a file fails.

Examples:
  propfrag check
  propfrag check src/Article.tsx --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := root.loadProject(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer p.logger.Sync()

			tOpts, err := p.transformOptions(noSchema)
			if err != nil {
				return reportSetupError(cmd.ErrOrStderr(), err)
			}
			files, err := p.files(args)
			if err != nil {
				return err
			}

			report, err := transform.NewCoordinator(transform.New(tOpts), p.cfg.Jobs).Run(runContext(cmd), files, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				list := report.Errors
				if list == nil {
					list = errors.ErrorList{}
				}
				text, err := list.ToJSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, text)
			} else if len(report.Errors) > 0 {
				ui.WriteCompilerErrors(out, report.Errors, color.NoColor)
			} else {
				fragments := 0
				for _, res := range report.Results {
					fragments += len(res.Fragments)
				}
				ui.WriteSuccess(out, fmt.Sprintf("%d fragment(s) in %d file(s) are valid", fragments, len(report.Results)), color.NoColor)
			}

			if report.Errors.HasErrors() {
				return fmt.Errorf("%d file(s) failed", len(report.Errors))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print errors as JSON")
	cmd.Flags().BoolVar(&noSchema, "no-schema", false, "Skip schema validation")

	return cmd
}
