// Package cmd is the htmlc command line.
//
// Configuration comes from, highest priority first: command-line flags,
// HTMLC_* environment variables, the file named by --config or
// HTMLC_CONFIG_FILE, and .htmlc.yml in the working directory.
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/htmlc/internal/config"
	"github.com/conneroisu/htmlc/internal/logging"
)

var cfgFile string

// flagKeys maps persistent flags to the config keys they override.
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "htmlc",
	Short: "Compile and preview HTML templates",
	Long: `htmlc compiles HTML templates written in the tag grammar (.htt) or the
nested grammar (.htn), checks them against the element schema and renders
them with contextual escaping.

Quick Start:
  htmlc check                     Compile every template and report problems
  htmlc render page.htt           Render a template with page.yaml as data
  htmlc serve                     Preview templates with live reload
  htmlc convert card.htt          Rewrite a template in the other grammar`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .htmlc.yml, can also use HTMLC_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error, off)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
}

// loadConfig reads the configuration for cmd, letting changed flags win over
// the file and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	config.Setup(v, cfgFile)

	cmd.Flags().Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			v.Set(key, f.Value.String())
		}
	})

	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger writes logs to w as configured.
func newLogger(cfg *config.Config, w io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(&logging.Config{
		Level:     level,
		Format:    cfg.Log.Format,
		Output:    w,
		Component: "htmlc",
	}), nil
}

// setup loads the config and builds the logger every command starts with.
func setup(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
