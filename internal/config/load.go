package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Luis-Munu/Arcane-Doughty-Optimizer/internal/domain"

	"gopkg.in/yaml.v3"
)

const FileName = "optimizer_config.yaml"

// Path returns the data file location under appRoot.
func Path(appRoot string, useExamples bool) string {
	if useExamples {
		return filepath.Join(appRoot, "input", "build_optimizer", "examples", "optimizer_config.example.yaml")
	}
	return filepath.Join(appRoot, FileName)
}

// Load reads and decodes a data file. Unknown keys are rejected.
func Load(path string) (domain.Config, error) {
	var cfg domain.Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}
