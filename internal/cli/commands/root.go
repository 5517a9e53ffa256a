package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/propfrag/propfrag/internal/cli/config"
	"github.com/propfrag/propfrag/internal/cli/ui"
	"github.com/propfrag/propfrag/internal/compiler/transform"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// rootOptions holds the persistent flags shared by every subcommand
type rootOptions struct {
	configPath string
	verbose    bool
	noColor    bool
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "propfrag",
		Short: "Generate GraphQL fragments from component props types",
		Long: color.CyanString(`propfrag - GraphQL fragments from TypeScript props

propfrag reads the props type of each component that calls
generateFragmentFromProps() and replaces the call with the fragment
that selects exactly those fields.

Features:
  • Relay and Apollo composition of child fragments
  • Schema validation of every generated fragment
  • Imported and aliased props types
  • Watch mode and an editor language server`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to propfrag.yaml (default: searched upward from the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewGenerateCommand(opts))
	rootCmd.AddCommand(NewCheckCommand(opts))
	rootCmd.AddCommand(NewInspectCommand(opts))
	rootCmd.AddCommand(NewWatchCommand(opts))
	rootCmd.AddCommand(NewLSPCommand(opts))
	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the propfrag version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			table := ui.NewKeyValueTable(cmd.OutOrStdout(), color.NoColor)
			table.AddRow("propfrag version", Version)
			table.AddRow("Git commit", GitCommit)
			table.AddRow("Build date", BuildDate)
			table.AddRow("Go version", goVer)
			table.Render()
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

// project is a loaded configuration with its logger
type project struct {
	cfg    *config.Config
	logger *zap.Logger
}

// loadProject reads the configuration named by --config, or searches upward
// from the working directory.
func (o *rootOptions) loadProject(errOut io.Writer) (*project, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath, filepath.Dir(o.configPath))
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		fmt.Fprint(errOut, ui.ConfigError(err.Error(), color.NoColor))
		return nil, fmt.Errorf("invalid configuration")
	}

	logger, err := config.NewLogger(cfg.Log.Level, o.verbose)
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded", zap.String("file", cfg.File), zap.String("root", cfg.Root))
	return &project{cfg: cfg, logger: logger}, nil
}

// transformOptions builds transformer options, loading the schema unless
// skipSchema is set or none is configured.
func (p *project) transformOptions(skipSchema bool) (transform.Options, error) {
	return p.cfg.TransformOptions(p.logger, !skipSchema)
}

// files returns the explicit paths, or every file selected by the
// include and exclude globs.
func (p *project) files(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	return transform.Discover(p.cfg.Root, p.cfg.Include, p.cfg.Exclude)
}

// relPath shortens path for display.
func (p *project) relPath(path string) string {
	if rel, err := filepath.Rel(p.cfg.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
