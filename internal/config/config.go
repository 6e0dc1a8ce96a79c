// Package config loads htmlc settings with Viper from .htmlc.yml, the file
// named by HTMLC_CONFIG_FILE, HTMLC_* environment variables and command-line
// flags bound by the CLI.
//
// It covers where templates live and which grammar each extension selects,
// schema extensions applied before the first compilation, render limits, the
// preview server and logging.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/conneroisu/htmlc/internal/validation"
)

// EnvPrefix prefixes every environment override, e.g. HTMLC_SERVER_PORT.
const EnvPrefix = "HTMLC"

// DefaultFileName is looked up in the working directory when no file is
// given.
const DefaultFileName = ".htmlc.yml"

type Config struct {
	Templates   TemplatesConfig `yaml:"templates"`
	Schema      SchemaConfig    `yaml:"schema"`
	Render      RenderConfig    `yaml:"render"`
	Server      ServerConfig    `yaml:"server"`
	Log         LogConfig       `yaml:"log"`
	TargetFiles []string        `yaml:"-"` // CLI arguments, not from config file
}

type TemplatesConfig struct {
	Paths            []string `yaml:"paths"`
	TagExtensions    []string `yaml:"tag_extensions"`
	NestedExtensions []string `yaml:"nested_extensions"`
	ExcludePatterns  []string `yaml:"exclude_patterns"`
}

type SchemaConfig struct {
	Frameworks       []string `yaml:"frameworks"`
	CustomElements   bool     `yaml:"custom_elements"`
	GlobalAttributes []string `yaml:"global_attributes"`
	// File is a YAML file of extra element entries.
	File string `yaml:"file"`
}

type RenderConfig struct {
	// BufferLimit caps rendered output in bytes. Zero means unlimited.
	BufferLimit int `yaml:"buffer_limit"`
	// DataSuffix names the data file rendered with a template:
	// page.htt is rendered with page.yaml.
	DataSuffix string `yaml:"data_suffix"`
	// MockData previews templates without a data file using generated
	// sample values.
	MockData bool `yaml:"mock_data"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Templates: TemplatesConfig{
			Paths:            []string{"."},
			TagExtensions:    []string{".htt"},
			NestedExtensions: []string{".htn"},
			ExcludePatterns:  []string{"*_test.htt", "*_test.htn", "*.bak"},
		},
		Render: RenderConfig{
			BufferLimit: 8 << 20,
			DataSuffix:  ".yaml",
		},
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SetDefaults registers the defaults on v so IsSet and env lookups see every
// key.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("templates.paths", d.Templates.Paths)
	v.SetDefault("templates.tag_extensions", d.Templates.TagExtensions)
	v.SetDefault("templates.nested_extensions", d.Templates.NestedExtensions)
	v.SetDefault("templates.exclude_patterns", d.Templates.ExcludePatterns)
	v.SetDefault("schema.frameworks", []string{})
	v.SetDefault("schema.custom_elements", false)
	v.SetDefault("schema.global_attributes", []string{})
	v.SetDefault("schema.file", "")
	v.SetDefault("render.buffer_limit", d.Render.BufferLimit)
	v.SetDefault("render.data_suffix", d.Render.DataSuffix)
	v.SetDefault("render.mock_data", d.Render.MockData)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Setup points v at the config file and the environment. An empty file
// falls back to HTMLC_CONFIG_FILE, then .htmlc.yml in the working directory.
func Setup(v *viper.Viper, file string) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file == "" {
		file = v.GetString("config_file")
	}
	if file != "" {
		v.SetConfigFile(file)
		return
	}
	v.AddConfigPath(".")
	v.SetConfigName(strings.TrimSuffix(DefaultFileName, filepath.Ext(DefaultFileName)))
	v.SetConfigType("yaml")
}

// Load reads the config file, if any, and unmarshals v into a validated
// Config. A missing default file is not an error.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return Unmarshal(v)
}

// Unmarshal decodes v into a Config using the yaml struct tags and checks
// it.
func Unmarshal(v *viper.Viper) (*Config, error) {
	config := Defaults()
	err := v.Unmarshal(config, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
		dc.WeaklyTypedInput = true
	})
	if err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	// Environment variables arrive as one string; split lists on commas.
	for _, list := range []*[]string{
		&config.Templates.Paths,
		&config.Templates.TagExtensions,
		&config.Templates.NestedExtensions,
		&config.Templates.ExcludePatterns,
		&config.Schema.Frameworks,
		&config.Schema.GlobalAttributes,
		&config.Server.AllowedOrigins,
	} {
		*list = splitList(*list)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validateTemplatesConfig(&config.Templates); err != nil {
		return fmt.Errorf("templates config: %w", err)
	}
	if config.Schema.File != "" {
		if _, err := validation.ValidatePath(config.Schema.File); err != nil {
			return fmt.Errorf("schema config: invalid file '%s': %w", config.Schema.File, err)
		}
	}
	if config.Render.BufferLimit < 0 {
		return fmt.Errorf("render config: buffer_limit %d must not be negative", config.Render.BufferLimit)
	}
	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}
	return nil
}

// validateTemplatesConfig validates template paths and extensions
func validateTemplatesConfig(config *TemplatesConfig) error {
	for _, path := range config.Paths {
		if _, err := validation.ValidatePath(path); err != nil {
			return fmt.Errorf("invalid template path '%s': %w", path, err)
		}
	}

	seen := make(map[string]string)
	for grammar, exts := range map[string][]string{"tag": config.TagExtensions, "nested": config.NestedExtensions} {
		if len(exts) == 0 {
			return fmt.Errorf("%s_extensions must not be empty", grammar)
		}
		for _, ext := range exts {
			if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
				return fmt.Errorf("extension %q must start with a dot", ext)
			}
			if other, dup := seen[ext]; dup && other != grammar {
				return fmt.Errorf("extension %q is used by both grammars", ext)
			}
			seen[ext] = grammar
		}
	}

	for _, pattern := range config.ExcludePatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid exclude pattern '%s': %w", pattern, err)
		}
	}
	return nil
}
