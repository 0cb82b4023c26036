package appconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigOverride sets a dotted config path, e.g. completion.model.
type ConfigOverride struct {
	Path  string
	Value any
}

// ParseOverride parses "path=value". The value is decoded as a YAML scalar so
// numbers and booleans keep their type.
func ParseOverride(spec string) (ConfigOverride, error) {
	path, raw, ok := strings.Cut(spec, "=")
	path = strings.TrimSpace(path)
	if !ok || path == "" {
		return ConfigOverride{}, fmt.Errorf("invalid override %q; expected path=value", spec)
	}
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
		value = raw
	}
	if _, isMap := value.(map[string]any); isMap {
		return ConfigOverride{}, fmt.Errorf("override %q must be a scalar", path)
	}
	return ConfigOverride{Path: path, Value: value}, nil
}

// ApplyOverrides returns cfg with the overrides applied. Only keys that exist
// in the config are accepted.
func ApplyOverrides(cfg Config, overrides []ConfigOverride) (Config, error) {
	if len(overrides) == 0 {
		return cfg, nil
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return cfg, err
	}
	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return cfg, err
	}
	for _, override := range overrides {
		if err := setOverrideValue(data, override.Path, override.Value); err != nil {
			return cfg, err
		}
	}
	updated, err := yaml.Marshal(data)
	if err != nil {
		return cfg, err
	}
	var next Config
	if err := yaml.Unmarshal(updated, &next); err != nil {
		return cfg, fmt.Errorf("apply overrides: %w", err)
	}
	if err := validate(next); err != nil {
		return cfg, err
	}
	return next, nil
}

// WriteDefaultWithOverrides writes the default config with overrides applied.
func WriteDefaultWithOverrides(path string, overwrite bool, overrides []ConfigOverride) (string, error) {
	if len(overrides) == 0 {
		return WriteDefault(path, overwrite)
	}
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}
	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}
	cfg, err = ApplyOverrides(cfg, overrides)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func setOverrideValue(root map[string]any, path string, value any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("config override path is required")
	}
	parts := strings.Split(path, ".")
	node := root
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return fmt.Errorf("invalid config override path %q", path)
		}
		current, ok := node[part]
		if !ok {
			return fmt.Errorf("unknown config key %q", path)
		}
		if i == len(parts)-1 {
			if _, isMap := current.(map[string]any); isMap {
				return fmt.Errorf("config override %q: %q is a section", path, part)
			}
			node[part] = value
			return nil
		}
		child, ok := current.(map[string]any)
		if !ok {
			return fmt.Errorf("config override %q: %q is not a map", path, part)
		}
		node = child
	}
	return nil
}
