package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/propfrag/propfrag/internal/cli/ui"
	"github.com/propfrag/propfrag/internal/compiler/errors"
	"github.com/propfrag/propfrag/internal/compiler/sourcemap"
	"github.com/propfrag/propfrag/internal/compiler/transform"
)

type generateOptions struct {
	outDir     string
	stdout     bool
	json       bool
	sourcemaps bool
	jobs       int
	noSchema   bool
}

// NewGenerateCommand creates the generate command
func NewGenerateCommand(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:     "generate [paths...]",
		Aliases: []string{"g"},
		Short:   "Replace marker calls with generated fragments",
		Long: `Transform source files, replacing every generateFragmentFromProps() and
generateFragmentFromPropsFor() call with the fragment for the props field
it is assigned to.

Without paths, every file matched by the include and exclude globs in
propfrag.yaml is transformed. Files containing markers are written to the
output directory, mirroring their path below the project root.

Examples:
  propfrag generate
  propfrag generate src/Article.tsx --stdout
  propfrag generate --out-dir build/src --sourcemap
  propfrag generate --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, root, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.outDir, "out-dir", "o", "", "Output directory (default: output.dir from propfrag.yaml)")
	cmd.Flags().BoolVar(&opts.stdout, "stdout", false, "Print transformed sources instead of writing them")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print generated fragments and errors as JSON")
	cmd.Flags().BoolVar(&opts.sourcemaps, "sourcemap", false, "Write a .map.json source map next to each output file")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "Files transformed in parallel (default: jobs from propfrag.yaml)")
	cmd.Flags().BoolVar(&opts.noSchema, "no-schema", false, "Skip schema validation")

	return cmd
}

func runGenerate(cmd *cobra.Command, root *rootOptions, opts *generateOptions, args []string) error {
	p, err := root.loadProject(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer p.logger.Sync()

	tOpts, err := p.transformOptions(opts.noSchema)
	if err != nil {
		return reportSetupError(cmd.ErrOrStderr(), err)
	}

	files, err := p.files(args)
	if err != nil {
		return err
	}

	outDir := p.cfg.Path(p.cfg.Output.Dir)
	if opts.outDir != "" {
		outDir, _ = filepath.Abs(opts.outDir)
	}
	writeMaps := opts.sourcemaps || p.cfg.Output.SourceMaps
	jobs := p.cfg.Jobs
	if cmd.Flags().Changed("jobs") {
		jobs = opts.jobs
	}

	out := cmd.OutOrStdout()
	quiet := opts.stdout || opts.json
	var bar *ui.ProgressBar
	if !quiet && len(files) > 1 {
		bar = ui.NewProgressBar(cmd.ErrOrStderr(), ui.ProgressBarOptions{
			Total:   len(files),
			Message: "generating",
			NoColor: color.NoColor,
		})
	}

	coord := transform.NewCoordinator(transform.New(tOpts), jobs)
	report, err := coord.Run(runContext(cmd), files, func(res *transform.Result) error {
		if bar != nil {
			defer bar.Add(1)
		}
		if quiet || !res.Changed {
			return nil
		}
		return writeResult(p, outDir, res, writeMaps)
	})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	switch {
	case opts.json:
		if err := writeJSONReport(out, p, report); err != nil {
			return err
		}
	case opts.stdout:
		for _, res := range report.Changed() {
			if len(report.Changed()) > 1 {
				color.New(color.FgHiBlack).Fprintf(out, "// %s\n", p.relPath(res.Path))
			}
			out.Write(res.Output)
		}
		ui.WriteCompilerErrors(cmd.ErrOrStderr(), report.Errors, color.NoColor)
	default:
		writeSummary(out, p, report, outDir)
		ui.WriteCompilerErrors(cmd.ErrOrStderr(), report.Errors, color.NoColor)
	}

	if report.Errors.HasErrors() {
		return fmt.Errorf("%d file(s) failed", len(report.Errors))
	}
	return nil
}

// outputPath mirrors path below the project root into outDir. Files outside
// the root keep only their base name.
func outputPath(p *project, outDir, path string) string {
	rel, err := filepath.Rel(p.cfg.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	return filepath.Join(outDir, rel)
}

func writeResult(p *project, outDir string, res *transform.Result, writeMaps bool) error {
	target := outputPath(p, outDir, res.Path)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(target, res.Output, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	p.logger.Debug("wrote output", zap.String("file", target), zap.Int("fragments", len(res.Fragments)))

	if writeMaps && res.SourceMap != nil {
		res.SourceMap.GeneratedFile = target
		if err := res.SourceMap.Save(target + sourcemap.Suffix); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(w io.Writer, p *project, report *transform.Report, outDir string) {
	changed := report.Changed()
	if len(changed) > 0 {
		table := ui.NewTable(w, []string{"File", "Fragments", "Output"}, color.NoColor)
		for _, res := range changed {
			table.AddRow(p.relPath(res.Path), strconv.Itoa(len(res.Fragments)), p.relPath(outputPath(p, outDir, res.Path)))
		}
		table.Render()
		fmt.Fprintln(w)
	}

	fragments := 0
	for _, res := range changed {
		fragments += len(res.Fragments)
	}
	msg := fmt.Sprintf("Generated %d fragment(s) in %d file(s) (%d scanned, %s)",
		fragments, len(changed), len(report.Results)+len(report.Errors), report.Duration.Round(time.Millisecond))
	if len(report.Errors) > 0 {
		fmt.Fprint(w, ui.Warning(fmt.Sprintf("%s, %d failed", msg, len(report.Errors)), color.NoColor))
		return
	}
	ui.WriteSuccess(w, msg, color.NoColor)
}

type jsonFragment struct {
	Component string `json:"component"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	Text      string `json:"text"`
}

type jsonFile struct {
	File      string         `json:"file"`
	Fragments []jsonFragment `json:"fragments"`
}

type jsonReport struct {
	Files  []jsonFile        `json:"files"`
	Errors errors.ErrorList `json:"errors"`
}

func buildJSONReport(p *project, report *transform.Report) jsonReport {
	out := jsonReport{Files: []jsonFile{}, Errors: report.Errors}
	if out.Errors == nil {
		out.Errors = errors.ErrorList{}
	}
	for _, res := range report.Changed() {
		f := jsonFile{File: p.relPath(res.Path)}
		for _, frag := range res.Fragments {
			f.Fragments = append(f.Fragments, jsonFragment{
				Component: frag.Component,
				Key:       frag.Key,
				Type:      frag.TypeName,
				Line:      frag.Line,
				Column:    frag.Column,
				Text:      frag.Text,
			})
		}
		out.Files = append(out.Files, f)
	}
	return out
}

func writeJSONReport(w io.Writer, p *project, report *transform.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(buildJSONReport(p, report))
}

// reportSetupError prints configuration problems such as an unreadable schema.
func reportSetupError(w io.Writer, err error) error {
	if ce, ok := errors.As(err); ok {
		ui.WriteCompilerErrors(w, errors.ErrorList{ce}, color.NoColor)
		return fmt.Errorf("%s: %s", ce.Code, ce.Message)
	}
	return err
}

// runContext returns the command context, or a background one when the
// command runs outside Execute.
func runContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
