package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/propfrag/propfrag/internal/lsp"
)

// NewLSPCommand creates the LSP command
func NewLSPCommand(root *rootOptions) *cobra.Command {
	var noSchema bool

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the propfrag Language Server Protocol (LSP) server.

The server transforms each open document as it changes and provides:
  • Diagnostics for every generation error
  • Hover on a marker call showing the fragment it generates

The LSP server communicates via JSON-RPC over stdin/stdout.
It is typically started automatically by your editor/IDE.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := root.loadProject(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer p.logger.Sync()

			opts, err := p.transformOptions(noSchema)
			if err != nil {
				return reportSetupError(cmd.ErrOrStderr(), err)
			}

			ctx, stop := signal.NotifyContext(runContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return lsp.NewServer(opts).Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&noSchema, "no-schema", false, "Skip schema validation")

	return cmd
}
