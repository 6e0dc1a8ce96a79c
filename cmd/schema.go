package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/htmlc/internal/config"
	"github.com/conneroisu/htmlc/internal/errors"
	"github.com/conneroisu/htmlc/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [element]",
	Short: "List the elements and attributes templates may use",
	Long: `Without arguments, list every element in the schema with the configured
frameworks and custom elements applied. Void elements are marked with /,
raw text elements with *. With an element name, list its attributes.

Examples:
  htmlc schema
  htmlc schema input`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	reg := schema.NewHTML()
	if err := config.ApplySchema(cfg, reg); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		fmt.Fprintln(out, headerStyle.Render("Elements"))
		for _, name := range reg.Elements() {
			entry, _ := reg.Lookup(name)
			marker := ""
			switch {
			case entry.Void:
				marker = " /"
			case entry.RawText:
				marker = " *"
			}
			fmt.Fprintln(out, "  "+name+dimStyle.Render(marker))
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, headerStyle.Render("Attribute prefixes"))
		fmt.Fprintln(out, "  "+strings.Join(reg.Prefixes(), " "))
		fmt.Fprintln(out)
		fmt.Fprintln(out, headerStyle.Render("Frameworks"))
		for _, fw := range schema.Frameworks() {
			state := dimStyle.Render("available")
			for _, enabled := range cfg.Schema.Frameworks {
				if strings.EqualFold(enabled, fw) {
					state = successStyle.Render("enabled")
				}
			}
			fmt.Fprintf(out, "  %s %s\n", fw, state)
		}
		return nil
	}

	name := strings.ToLower(args[0])
	entry, ok := reg.Lookup(name)
	if !ok {
		msg := fmt.Sprintf("unknown element <%s>", name)
		if s := errors.Suggest(name, reg.Elements(), errors.DefaultSuggestionLimit); len(s) > 0 {
			msg += fmt.Sprintf("; did you mean <%s>?", strings.Join(s, ">, <"))
		}
		return fmt.Errorf("%s", msg)
	}

	fmt.Fprintln(out, headerStyle.Render("<"+entry.Name+">"))
	if entry.Void {
		fmt.Fprintln(out, dimStyle.Render("  void: no children, no closing tag"))
	}
	if entry.RawText {
		fmt.Fprintln(out, dimStyle.Render("  raw text: content is emitted verbatim"))
	}
	if entry.AllowCustomAttributes {
		fmt.Fprintln(out, dimStyle.Render("  accepts any attribute"))
	}
	for _, attr := range reg.Attributes(name) {
		fmt.Fprintln(out, "  "+attr)
	}
	return nil
}
