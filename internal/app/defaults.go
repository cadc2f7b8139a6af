package app

import (
	"fmt"
	"os"
	"path/filepath"

	"ohv-go/internal/config"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - OHV_PROJECT_ROOT: project root when --project-root is not given (default: ".")
//   - OHV_CONFIG_NAME: config file name inside the project root (default: ohv.toml)
func GetDefaults() (map[string]string, error) {
	root := os.Getenv("OHV_PROJECT_ROOT")
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	return map[string]string{
		"project_root": abs,
		"config_name":  configName(),
	}, nil
}

// ConfigPath returns the config file location for projectRoot.
func ConfigPath(projectRoot string) string {
	return filepath.Join(projectRoot, configName())
}

func configName() string {
	if name := os.Getenv("OHV_CONFIG_NAME"); name != "" {
		return name
	}
	return config.FileName
}
