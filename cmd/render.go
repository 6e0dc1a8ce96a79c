package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/htmlc/internal/build"
	"github.com/conneroisu/htmlc/pkg/htmlc"
)

var (
	renderData string
	renderOut  string
	renderMock bool
)

var renderCmd = &cobra.Command{
	Use:   "render FILE",
	Short: "Render a template",
	Long: `Render a template to stdout or a file. Templates under the configured
paths are compiled too so the template can call them as components.

Data comes from --data, or from the file next to the template named by
render.data_suffix (page.htt renders with page.yaml). With --mock, a
template without a data file renders with generated sample values.

Examples:
  htmlc render views/page.htt
  htmlc render views/page.htt --data fixtures/ada.yaml --out page.html
  htmlc render views/card.htn --mock`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderData, "data", "d", "", "YAML data file")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "Write output to this file instead of stdout")
	renderCmd.Flags().BoolVar(&renderMock, "mock", false, "Generate sample data when there is no data file (default render.mock_data)")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	file := args[0]

	pipeline, err := build.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}
	if _, err := pipeline.BuildAll(cmd.Context()); err != nil {
		logger.Warn(cmd.Context(), err, "could not compile the template paths")
	}
	res, err := pipeline.BuildFile(cmd.Context(), file)
	if err != nil {
		return err
	}
	if res.Failed() {
		printDiagnostic(cmd.ErrOrStderr(), errorStyle, "✗ "+res.File.Name, res.Diagnostic())
		return fmt.Errorf("%s does not compile", file)
	}

	var data map[string]any
	if renderData != "" {
		data, err = build.LoadData(renderData)
	} else {
		data, err = build.DataFor(res, cfg.Render.DataSuffix, renderMock || cfg.Render.MockData)
	}
	if err != nil {
		return err
	}

	buf := htmlc.NewBuffer(cfg.Render.BufferLimit)
	if err := res.Template.TryRenderTo(buf, data); err != nil {
		return err
	}

	if renderOut == "" {
		_, err = buf.WriteTo(cmd.OutOrStdout())
		return err
	}
	return os.WriteFile(renderOut, buf.Bytes(), 0o644)
}
