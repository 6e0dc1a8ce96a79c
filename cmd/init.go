package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/htmlc/internal/compiler"
	"github.com/conneroisu/htmlc/internal/config"
	"github.com/conneroisu/htmlc/internal/scaffolding"
)

var (
	initSyntax string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a new htmlc project",
	Long: `Create a project in dir (default: the working directory) with a
.htmlc.yml, Layout and Card components and an index page with data.

Examples:
  htmlc init
  htmlc init site --syntax nested`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initSyntax, "syntax", "tag", "Grammar of the generated templates (tag, nested)")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing files")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	syntax, err := compiler.ParseSyntax(initSyntax)
	if err != nil {
		return err
	}

	gen := scaffolding.NewGenerator(config.Defaults().Templates)
	paths, err := gen.InitProject(dir, syntax, initForce)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, path := range paths {
		fmt.Fprintln(out, successStyle.Render("✓ ")+path)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next: run "+headerStyle.Render("htmlc serve")+" in "+dir)
	return nil
}
