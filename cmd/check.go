package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/htmlc/internal/accessibility"
	"github.com/conneroisu/htmlc/internal/build"
	"github.com/conneroisu/htmlc/internal/config"
	"github.com/conneroisu/htmlc/internal/errors"
	"github.com/conneroisu/htmlc/internal/logging"
	"github.com/conneroisu/htmlc/internal/watcher"
	"github.com/conneroisu/htmlc/pkg/htmlc"
)

var (
	checkWatch   bool
	checkWorkers int
	checkA11y    bool
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Compile every template and report problems",
	Long: `Compile every template under the given paths (default: templates.paths)
and report syntax errors, schema violations, calls to components that no
template or Go function defines, and component call cycles.

Examples:
  htmlc check                  # Check the configured template paths
  htmlc check views/ page.htt  # Check specific directories and files
  htmlc check --watch          # Re-check templates as they change
  htmlc check --a11y           # Also audit rendered output for accessibility`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVarP(&checkWatch, "watch", "w", false, "Re-check templates when they change")
	checkCmd.Flags().IntVar(&checkWorkers, "workers", 0, "Templates compiled in parallel (default: number of CPUs)")
	checkCmd.Flags().BoolVar(&checkA11y, "a11y", false, "Render each template with its data or mock data and audit the HTML for accessibility")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	validation := config.ValidateConfigWithDetails(cfg)
	if validation.HasWarnings() || validation.HasErrors() {
		fmt.Fprint(cmd.ErrOrStderr(), validation.String())
	}
	if !validation.Valid {
		return fmt.Errorf("invalid configuration")
	}

	pipeline, err := build.NewPipeline(cfg, logger, build.WithWorkers(checkWorkers))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := pipeline.BuildAll(ctx, args...)
	if err != nil {
		return err
	}
	problems := report(out, pipeline, len(results))
	if checkA11y {
		audit(out, cfg, pipeline)
	}

	if checkWatch {
		return watchAndCheck(ctx, out, cfg, logger, pipeline, args)
	}
	if problems > 0 {
		return fmt.Errorf("%d problem(s) found", problems)
	}
	return nil
}

// report prints every problem in the pipeline and returns how many there
// were.
func report(w io.Writer, pipeline *build.Pipeline, total int) int {
	collector := errors.NewErrorCollector()
	for _, res := range pipeline.Failures() {
		collector.Add(res.Err)
		printDiagnostic(w, errorStyle, "✗ "+res.File.Name, res.Diagnostic())
	}

	set := pipeline.Set()
	names := set.Names()
	missing := set.Missing()
	for _, tmpl := range set.Templates() {
		for _, call := range missing[tmpl.Name()] {
			body := ""
			if sugg := errors.Suggest(call, names, errors.DefaultSuggestionLimit); len(sugg) > 0 {
				body = "did you mean: " + strings.Join(sugg, ", ")
			}
			collector.Add(fmt.Errorf("%s: unknown component %s", tmpl.Name(), call))
			printDiagnostic(w, errorStyle, fmt.Sprintf("✗ %s: unknown component <%s>", tmpl.Name(), call), body)
		}
	}

	for _, cycle := range set.Cycles() {
		collector.Add(fmt.Errorf("component cycle: %s", strings.Join(cycle, " -> ")))
		printDiagnostic(w, warningStyle, "⚠ component cycle: "+strings.Join(cycle, " → "), "")
	}

	problems := collector.Count()
	summary := fmt.Sprintf("%d template(s) checked, %d problem(s)", total, problems)
	if problems == 0 {
		fmt.Fprintln(w, successStyle.Render("✓ "+summary))
	} else {
		fmt.Fprintln(w, errorStyle.Render(summary))
	}
	return problems
}

// audit renders every compiled template and prints its accessibility
// violations as warnings.
func audit(w io.Writer, cfg *config.Config, pipeline *build.Pipeline) int {
	warnings := 0
	for _, res := range pipeline.Results() {
		if res.Failed() {
			continue
		}
		data, err := build.DataFor(res, cfg.Render.DataSuffix, true)
		if err != nil {
			printDiagnostic(w, warningStyle, "⚠ "+res.File.Name+": cannot load data", err.Error())
			warnings++
			continue
		}
		buf := htmlc.NewBuffer(cfg.Render.BufferLimit)
		if err := res.Template.TryRenderTo(buf, data); err != nil {
			printDiagnostic(w, warningStyle, "⚠ "+res.File.Name+": cannot render", err.Error())
			warnings++
			continue
		}
		violations, err := accessibility.Check(strings.NewReader(buf.String()))
		if err != nil {
			printDiagnostic(w, warningStyle, "⚠ "+res.File.Name, err.Error())
			warnings++
			continue
		}
		for _, v := range violations {
			printDiagnostic(w, warningStyle, "⚠ "+res.File.Name+": "+v.String(), "hint: "+v.Rule.Help)
		}
		warnings += len(violations)
	}
	if warnings == 0 {
		fmt.Fprintln(w, successStyle.Render("✓ no accessibility warnings"))
	} else {
		fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("%d accessibility warning(s)", warnings)))
	}
	return warnings
}

func watchAndCheck(ctx context.Context, w io.Writer, cfg *config.Config, logger logging.Logger, pipeline *build.Pipeline, paths []string) error {
	fw, err := watcher.NewFileWatcher(200*time.Millisecond, watcher.WithLogger(logger))
	if err != nil {
		return err
	}
	defer fw.Stop()

	fw.AddFilter(watcher.NoGitFilter)
	fw.AddFilter(watcher.NoVendorFilter)
	fw.AddFilter(watcher.TemplateFilter(pipeline.Scanner()))
	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		for _, event := range events {
			if event.Type.Gone() {
				pipeline.Remove(event.Path)
				continue
			}
			if _, err := pipeline.BuildFile(ctx, event.Path); err != nil {
				logger.Warn(ctx, err, "rebuild failed", "path", event.Path)
			}
		}
		fmt.Fprintln(w, dimStyle.Render(time.Now().Format("15:04:05")+" change detected"))
		report(w, pipeline, len(pipeline.Results()))
		return nil
	})

	if len(paths) == 0 {
		paths = cfg.Templates.Paths
	}
	for _, path := range paths {
		if err := fw.AddRecursive(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	fmt.Fprintln(w, dimStyle.Render("watching for changes, press Ctrl+C to stop"))
	<-ctx.Done()
	return nil
}
