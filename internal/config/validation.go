package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/conneroisu/htmlc/internal/logging"
	"github.com/conneroisu/htmlc/internal/schema"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String lists errors then warnings, each with its hints. It is empty when
// there is nothing to report.
func (vr *ValidationResult) String() string {
	var b strings.Builder
	writeIssues(&b, "Validation errors", vr.Errors)
	if len(vr.Errors) > 0 && len(vr.Warnings) > 0 {
		b.WriteString("\n")
	}
	writeIssues(&b, "Validation warnings", vr.Warnings)
	return b.String()
}

func writeIssues(b *strings.Builder, title string, issues []ValidationError) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, issue := range issues {
		fmt.Fprintf(b, "  • %s: %s\n", issue.Field, issue.Message)
		for _, hint := range issue.Suggestions {
			fmt.Fprintf(b, "    hint: %s\n", hint)
		}
	}
}

// ValidateConfigWithDetails checks config beyond what Load rejects, adding
// warnings for settings that are legal but probably wrong.
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateServerConfigDetails(&config.Server, result)
	validateTemplatesConfigDetails(&config.Templates, result)
	validateSchemaConfigDetails(&config.Schema, result)
	validateRenderConfigDetails(&config.Render, result)
	validateLogConfigDetails(&config.Log, result)

	result.Valid = !result.HasErrors()
	return result
}

func validateServerConfigDetails(config *ServerConfig, result *ValidationResult) {
	if config.Port < 0 || config.Port > 65535 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: fmt.Sprintf("port %d is not in valid range 0-65535", config.Port),
			Suggestions: []string{
				"Use a port between 1024-65535 for non-privileged access",
				"Port 0 allows system to assign an available port",
			},
		})
	} else if config.Port > 0 && config.Port < 1024 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:       "server.port",
			Value:       config.Port,
			Message:     "port below 1024 requires elevated privileges",
			Suggestions: []string{"Consider using a port above 1024 for development"},
		})
	}

	if config.Host != "" {
		if err := validateHostname(config.Host); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:       "server.host",
				Value:       config.Host,
				Message:     fmt.Sprintf("invalid host: %v", err),
				Suggestions: []string{"Use localhost, an IP address or a plain hostname"},
			})
		}
	}
}

func validateTemplatesConfigDetails(config *TemplatesConfig, result *ValidationResult) {
	if err := validateTemplatesConfig(config); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "templates",
			Message: err.Error(),
		})
		return
	}

	for _, path := range config.Paths {
		if !pathExists(path) {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:       "templates.paths",
				Value:       path,
				Message:     fmt.Sprintf("template path %s does not exist", path),
				Suggestions: []string{"Create the directory or remove it from templates.paths"},
			})
		}
	}
}

func validateSchemaConfigDetails(config *SchemaConfig, result *ValidationResult) {
	known := schema.Frameworks()
	for _, fw := range config.Frameworks {
		if !slices.Contains(known, strings.ToLower(fw)) {
			result.Errors = append(result.Errors, ValidationError{
				Field:       "schema.frameworks",
				Value:       fw,
				Message:     fmt.Sprintf("unknown framework %q", fw),
				Suggestions: []string{"Known frameworks: " + strings.Join(known, ", ")},
			})
		}
	}

	if config.File != "" && !pathExists(config.File) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "schema.file",
			Value:   config.File,
			Message: fmt.Sprintf("schema file %s does not exist", config.File),
		})
	}
}

func validateRenderConfigDetails(config *RenderConfig, result *ValidationResult) {
	if config.BufferLimit == 0 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:       "render.buffer_limit",
			Value:       0,
			Message:     "rendered output is unbounded",
			Suggestions: []string{"Set a limit so a runaway loop cannot exhaust memory"},
		})
	}
	if config.DataSuffix != "" && !strings.HasPrefix(config.DataSuffix, ".") {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "render.data_suffix",
			Value:   config.DataSuffix,
			Message: "data suffix must start with a dot",
		})
	}
}

func validateLogConfigDetails(config *LogConfig, result *ValidationResult) {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "log.level",
			Value:       config.Level,
			Message:     err.Error(),
			Suggestions: []string{"Use debug, info, warn, error or off"},
		})
	}
	if config.Format != "" && config.Format != "text" && config.Format != "json" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "log.format",
			Value:   config.Format,
			Message: fmt.Sprintf("unknown log format %q", config.Format),
			Suggestions: []string{
				"Use text for terminals",
				"Use json for log collectors",
			},
		})
	}
}

var hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

func validateHostname(host string) error {
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
	for _, char := range dangerousChars {
		if strings.Contains(host, char) {
			return fmt.Errorf("contains dangerous character: %s", char)
		}
	}

	if net.ParseIP(host) != nil || host == "localhost" {
		return nil
	}

	if !hostnameRegex.MatchString(host) {
		return fmt.Errorf("invalid hostname format")
	}
	return nil
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
