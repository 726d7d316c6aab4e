package config

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Load reads path, env-expands it, merges it onto Defaults() (file values
// win), and validates the result. A missing file is not an error: the
// built-in defaults are returned as-is, matching tarsy's
// Initialize()-returns-ready-to-use-config contract.
func Load(path string) (*YAMLConfig, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if verr := NewValidator(&cfg).ValidateAll(); verr != nil {
				return nil, verr
			}
			return &cfg, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigNotFound, path, err)
	}

	data = ExpandEnv(data)

	var fileCfg YAMLConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidYAML, path, err)
	}

	if err := mergo.Merge(&cfg, fileCfg, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("config: merge %s onto defaults: %w", path, err)
	}

	if err := NewValidator(&cfg).ValidateAll(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
