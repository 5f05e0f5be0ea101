package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileProvider is a Provider backed by a YAML file of flat key/value pairs:
//
//	wait.explicit.timeout.ms: 20000
//	retry.max.attempts: 2
//	browser.headless: true
//
// Values are flattened to strings at load time, so the typed getters apply
// the same conversion rules as Static. Nested mappings are flattened with a
// dot-joined key.
type FileProvider struct {
	*Static
	path string
}

// NewFileProvider loads configuration from the YAML file at path.
// A missing file is not an error: the provider starts empty and every getter
// returns its default, matching a run without a config file.
func NewFileProvider(path string) (*FileProvider, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileProvider{Static: NewStatic(nil), path: path}, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	values := make(map[string]string)
	flatten("", doc, values)

	return &FileProvider{Static: NewStatic(values), path: path}, nil
}

// Path returns the file path the provider was loaded from.
func (f *FileProvider) Path() string {
	return f.path
}

// flatten converts a decoded YAML mapping into dot-joined string pairs.
func flatten(prefix string, node map[string]interface{}, out map[string]string) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]interface{}:
			flatten(full, v, out)
		case nil:
			// Skip null entries so getters fall back to defaults.
		default:
			out[full] = fmt.Sprintf("%v", v)
		}
	}
}
