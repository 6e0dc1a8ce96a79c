package build

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/htmlc/internal/mockdata"
)

// DataPath is the data file rendered with the template at path: page.htt
// pairs with page.yaml for the suffix ".yaml".
func DataPath(path, suffix string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix
}

// DataFor loads the data file beside the template of res. When there is none
// and mock is set, sample values are generated from the variables the
// template reads.
func DataFor(res Result, suffix string, mock bool) (map[string]any, error) {
	path := DataPath(res.File.Path, suffix)
	if _, err := os.Stat(path); os.IsNotExist(err) && mock && res.Template != nil {
		gen := mockdata.New(mockdata.SeedFor(res.File.Name))
		return gen.ForVariables(res.Template.Variables()), nil
	}
	return LoadData(path)
}

// LoadData reads a YAML data file. A missing file is empty data.
func LoadData(path string) (map[string]any, error) {
	data := map[string]any{}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return data, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}
