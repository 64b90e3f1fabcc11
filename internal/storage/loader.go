package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadSeedFile reads listings and leads from a .json, .yaml or .yml file.
func LoadSeedFile(path string) (Seed, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(b, &seed); err != nil {
			return Seed{}, fmt.Errorf("unmarshal json seed: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &seed); err != nil {
			return Seed{}, fmt.Errorf("unmarshal yaml seed: %w", err)
		}
	default:
		return Seed{}, fmt.Errorf("unsupported seed file extension %q", ext)
	}
	return seed, nil
}
