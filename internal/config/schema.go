package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/htmlc/internal/errors"
	"github.com/conneroisu/htmlc/internal/schema"
)

// SchemaFile is the layout of the file named by schema.file.
//
//	global_attributes: [data-testid]
//	elements:
//	  - name: my-card
//	    attributes: [variant]
//	  - name: my-icon
//	    void: true
type SchemaFile struct {
	GlobalAttributes []string       `yaml:"global_attributes"`
	Elements         []schema.Entry `yaml:"elements"`
}

// LoadSchemaFile parses a schema extension file. Unknown keys are rejected.
func LoadSchemaFile(path string) (*SchemaFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotFound, "reading schema file "+path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var file SchemaFile
	if err := dec.Decode(&file); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("parsing schema file %s: %v", path, err)).
			WithHint("the file holds global_attributes and a list of elements")
	}
	return &file, nil
}

// ApplySchema registers the configured schema extensions on reg. It must run
// before the first template is validated against reg.
func ApplySchema(cfg *Config, reg *schema.Registry) error {
	for _, fw := range cfg.Schema.Frameworks {
		if err := reg.EnableFramework(fw); err != nil {
			return err
		}
	}
	if cfg.Schema.CustomElements {
		if err := reg.AllowCustomElements(); err != nil {
			return err
		}
	}
	if len(cfg.Schema.GlobalAttributes) > 0 {
		if err := reg.RegisterGlobalAttributes(cfg.Schema.GlobalAttributes...); err != nil {
			return err
		}
	}

	if cfg.Schema.File == "" {
		return nil
	}
	file, err := LoadSchemaFile(cfg.Schema.File)
	if err != nil {
		return err
	}
	if len(file.GlobalAttributes) > 0 {
		if err := reg.RegisterGlobalAttributes(file.GlobalAttributes...); err != nil {
			return err
		}
	}
	for _, e := range file.Elements {
		if err := reg.Register(e); err != nil {
			return err
		}
	}
	return nil
}
