package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/propfrag/propfrag/internal/cli/config"
	"github.com/propfrag/propfrag/internal/cli/ui"
	"github.com/propfrag/propfrag/internal/compiler/codegen"
)

// initAnswers are the values asked for by init
type initAnswers struct {
	Schema     string `survey:"schema"`
	Preset     string `survey:"preset"`
	Include    string `survey:"include"`
	OutputDir  string `survey:"output"`
	SourceMaps bool   `survey:"sourcemaps"`
}

func defaultAnswers() initAnswers {
	cfg := config.Default()
	return initAnswers{
		Schema:     cfg.Schema,
		Preset:     cfg.Preset,
		Include:    cfg.Include[0],
		OutputDir:  cfg.Output.Dir,
		SourceMaps: cfg.Output.SourceMaps,
	}
}

// NewInitCommand creates the init command
func NewInitCommand() *cobra.Command {
	var (
		dir   string
		yes   bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a propfrag.yaml",
		Long: `Create a propfrag.yaml in the current directory, asking for the schema
location, the composition preset and where generated files go.

Examples:
  propfrag init
  propfrag init --yes --dir web`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(dir, config.FileName)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			answers := defaultAnswers()
			if !yes {
				if err := askInit(&answers); err != nil {
					return err
				}
			}

			cfg, err := buildInitConfig(answers)
			if err != nil {
				return err
			}
			if err := config.Write(path, cfg); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ui.WriteSuccess(out, "Created "+path, color.NoColor)
			if _, err := os.Stat(filepath.Join(dir, cfg.Schema)); err != nil {
				fmt.Fprint(out, ui.Warning(fmt.Sprintf("Schema %s does not exist yet", cfg.Schema), color.NoColor))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to create propfrag.yaml in")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Accept defaults without prompting")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing propfrag.yaml")

	return cmd
}

func askInit(answers *initAnswers) error {
	questions := []*survey.Question{
		{
			Name:     "schema",
			Prompt:   &survey.Input{Message: "Schema file (SDL or introspection JSON):", Default: answers.Schema},
			Validate: survey.Required,
		},
		{
			Name: "preset",
			Prompt: &survey.Select{
				Message: "GraphQL client:",
				Options: codegen.PresetNames(),
				Default: answers.Preset,
			},
		},
		{
			Name:     "include",
			Prompt:   &survey.Input{Message: "Source files:", Default: answers.Include},
			Validate: survey.Required,
		},
		{
			Name:     "output",
			Prompt:   &survey.Input{Message: "Output directory:", Default: answers.OutputDir},
			Validate: survey.Required,
		},
		{
			Name:   "sourcemaps",
			Prompt: &survey.Confirm{Message: "Write source maps?", Default: answers.SourceMaps},
		},
	}
	return survey.Ask(questions, answers)
}

// buildInitConfig applies the answers to the defaults and validates them.
func buildInitConfig(a initAnswers) (*config.Config, error) {
	cfg := config.Default()
	cfg.Schema = a.Schema
	cfg.Preset = a.Preset
	cfg.Include = []string{a.Include}
	cfg.Output.Dir = a.OutputDir
	cfg.Output.SourceMaps = a.SourceMaps
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
