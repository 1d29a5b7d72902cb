package core

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DecodeOriginatorConfiguration parses a YAML (or JSON) originator document.
func DecodeOriginatorConfiguration(data []byte) (OriginatorConfiguration, error) {
	var cfg OriginatorConfiguration
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return OriginatorConfiguration{}, fmt.Errorf("core: parse originator configuration: %w", err)
	}
	return cfg, nil
}

// LoadOriginatorConfiguration reads and parses the document at path.
func LoadOriginatorConfiguration(path string) (OriginatorConfiguration, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return OriginatorConfiguration{}, fmt.Errorf("core: read originator configuration: %w", err)
	}
	return DecodeOriginatorConfiguration(data)
}
