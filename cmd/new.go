package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/htmlc/internal/compiler"
	"github.com/conneroisu/htmlc/internal/scaffolding"
)

var (
	newScaffold string
	newDir      string
	newSyntax   string
	newData     bool
	newForce    bool
	newList     bool
)

var newCmd = &cobra.Command{
	Use:   "new NAME",
	Short: "Create a template from a scaffold",
	Long: `Create a template from a built-in scaffold. Capitalized names become
components other templates can call.

Examples:
  htmlc new ProfileCard --scaffold card --dir views/components
  htmlc new Menu --scaffold nav --syntax nested --data
  htmlc new --list`,
	Args: func(cmd *cobra.Command, args []string) error {
		if newList {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runNew,
}

func init() {
	rootCmd.AddCommand(newCmd)

	newCmd.Flags().StringVarP(&newScaffold, "scaffold", "s", "card", "Scaffold to start from")
	newCmd.Flags().StringVarP(&newDir, "dir", "d", ".", "Directory to write to")
	newCmd.Flags().StringVar(&newSyntax, "syntax", "tag", "Grammar of the template (tag, nested)")
	newCmd.Flags().BoolVar(&newData, "data", false, "Also write a sample data file")
	newCmd.Flags().BoolVarP(&newForce, "force", "f", false, "Overwrite existing files")
	newCmd.Flags().BoolVar(&newList, "list", false, "List the available scaffolds")
}

func runNew(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	gen := scaffolding.NewGenerator(cfg.Templates)
	out := cmd.OutOrStdout()

	if newList {
		for _, s := range gen.Scaffolds() {
			fmt.Fprintf(out, "%-8s %s %s\n", s.Name, dimStyle.Render("["+s.Category+"]"), s.Description)
		}
		return nil
	}

	syntax, err := compiler.ParseSyntax(newSyntax)
	if err != nil {
		return err
	}
	paths, err := gen.Generate(scaffolding.Options{
		Name:       args[0],
		Scaffold:   newScaffold,
		Dir:        newDir,
		Syntax:     syntax,
		WithData:   newData,
		DataSuffix: cfg.Render.DataSuffix,
		Force:      newForce,
	})
	if err != nil {
		return err
	}
	for _, path := range paths {
		fmt.Fprintln(out, successStyle.Render("✓ ")+path)
	}
	return nil
}
