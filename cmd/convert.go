package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/htmlc/internal/compiler"
	"github.com/conneroisu/htmlc/internal/errors"
	"github.com/conneroisu/htmlc/internal/printer"
)

var (
	convertTo  string
	convertOut string
)

var convertCmd = &cobra.Command{
	Use:   "convert FILE",
	Short: "Rewrite a template in the other grammar",
	Long: `Parse a template and print it in the tag or nested grammar. Without --to
the template is written in the grammar it is not in. Converting to the same
grammar reformats it.

Examples:
  htmlc convert card.htt                 # Print card.htt as a nested template
  htmlc convert card.htn --to tag -o card.htt`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convertTo, "to", "t", "", "Target grammar (tag, nested)")
	convertCmd.Flags().StringVarP(&convertOut, "out", "o", "", "Write output to this file instead of stdout")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	file := args[0]

	target, err := compiler.ParseSyntax(convertTo)
	if err != nil {
		return err
	}

	src, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}
	nodes, syntax, err := compiler.Parse(compiler.Source{Name: file, Text: string(src)}, compiler.Options{
		TagExtensions:    cfg.Templates.TagExtensions,
		NestedExtensions: cfg.Templates.NestedExtensions,
	})
	if err != nil {
		printDiagnostic(cmd.ErrOrStderr(), errorStyle, "✗ "+file, errors.Format(err, string(src)))
		return fmt.Errorf("%s does not parse", file)
	}

	if target == compiler.SyntaxAuto {
		target = compiler.SyntaxNested
		if syntax == compiler.SyntaxNested {
			target = compiler.SyntaxTag
		}
	}

	var out string
	if target == compiler.SyntaxTag {
		out, err = printer.Tag(nodes)
	} else {
		out, err = printer.Nested(nodes)
	}
	if err != nil {
		return fmt.Errorf("converting %s to the %s grammar: %w", file, target, err)
	}

	if convertOut == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}
	return os.WriteFile(convertOut, []byte(out), 0o644)
}
