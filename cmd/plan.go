package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/htmlc/internal/build"
	"github.com/conneroisu/htmlc/internal/codegen"
	"github.com/conneroisu/htmlc/internal/errors"
	"github.com/conneroisu/htmlc/pkg/htmlc"
)

var planFormat string

var planCmd = &cobra.Command{
	Use:   "plan FILE",
	Short: "Show the render plan a template compiles to",
	Long: `Compile one template and print its render plan: the literal runs, the
escaped and raw expressions and the invocations for conditionals, loops,
matches and component calls.

Examples:
  htmlc plan card.htn
  htmlc plan page.htt --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVarP(&planFormat, "format", "f", "text", "Output format (text, json, yaml)")
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	file := args[0]

	src, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}
	set, err := build.NewSet(cfg, logger)
	if err != nil {
		return err
	}
	tmpl, err := set.Parse(file, htmlc.SyntaxAuto, string(src))
	if err != nil {
		printDiagnostic(cmd.ErrOrStderr(), errorStyle, "✗ "+file, errors.Format(err, string(src)))
		return fmt.Errorf("%s does not compile", file)
	}

	out := cmd.OutOrStdout()
	plan := tmpl.Plan()
	switch planFormat {
	case "text":
		_, err = fmt.Fprint(out, plan.String())
		return err
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(codegen.Describe(plan.Ops))
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(codegen.Describe(plan.Ops)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (use text, json or yaml)", planFormat)
	}
}
