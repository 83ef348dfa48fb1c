// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/pathdb/internal/errors"
	"github.com/kraklabs/pathdb/pkg/pathdb"
)

const (
	defaultConfigDir  = ".pathdb"
	defaultConfigFile = "project.yaml"
	configVersion     = "1"
)

// Config represents the .pathdb/project.yaml configuration file: project
// identity plus the four options spec.md names (index_depth,
// path_index_lru_capacity, index_sidecar_debounce, require_canonical),
// mirroring cie's project.yaml/CIEConfig shape.
type Config struct {
	Version   string       `yaml:"version"`
	ProjectID string       `yaml:"project_id"`
	Index     IndexConfig  `yaml:"index"`
	Sidecar   SidecarConfig `yaml:"sidecar"`

	// ConfigPath is the absolute path this config was loaded from, not
	// itself serialized; set by LoadConfig for callers that need to
	// resolve paths relative to the config file.
	ConfigPath string `yaml:"-"`
}

// IndexConfig holds the path-index tuning options.
type IndexConfig struct {
	Depth            int  `yaml:"depth"`
	PathLRUCapacity  int  `yaml:"path_lru_capacity"`
	RequireCanonical bool `yaml:"require_canonical"`
}

// SidecarConfig holds the sidecar writer's debounce and the local data
// directory override.
type SidecarConfig struct {
	DebounceSeconds int    `yaml:"debounce_seconds"`
	LocalDataDir    string `yaml:"local_data_dir,omitempty"`
}

// DefaultConfig returns a config with spec-default tuning for projectID.
func DefaultConfig(projectID string) *Config {
	return &Config{
		Version:   configVersion,
		ProjectID: projectID,
		Index: IndexConfig{
			Depth:            pathdb.DefaultIndexDepth,
			PathLRUCapacity:  pathdb.DefaultPathIndexLRUCapacity,
			RequireCanonical: false,
		},
		Sidecar: SidecarConfig{DebounceSeconds: 2},
	}
}

// DBConfig translates the CLI's project config into the pathdb.Config the
// engine itself understands.
func (c *Config) DBConfig() pathdb.Config {
	return pathdb.Config{
		IndexDepth:                  c.Index.Depth,
		PathIndexLRUCapacity:        c.Index.PathLRUCapacity,
		IndexSidecarDebounceSeconds: c.Sidecar.DebounceSeconds,
		RequireCanonical:            c.Index.RequireCanonical,
	}
}

// LoadConfig loads configuration from configPath, or finds .pathdb/project.yaml
// in the current or a parent directory when configPath is empty.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = os.Getenv("PATHDB_CONFIG_PATH")
	}
	if configPath == "" {
		var err error
		configPath, err = findConfigFile()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) //nolint:gosec // G304: path comes from user config/discovery
	if err != nil {
		return nil, errors.NewConfigError(
			"Cannot read configuration file",
			fmt.Sprintf("Failed to read %s", configPath),
			"Check file permissions and ensure the file exists",
			err,
		)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.NewConfigError(
			"Invalid configuration format",
			"YAML parsing failed - the config file contains syntax errors",
			fmt.Sprintf("Edit %s to fix syntax errors, or run 'pathdb init --force' to recreate", configPath),
			err,
		)
	}
	if cfg.Version != configVersion {
		return nil, errors.NewConfigError(
			"Unsupported configuration version",
			fmt.Sprintf("Config version '%s' is not supported (expected '%s')", cfg.Version, configVersion),
			"Run 'pathdb init --force' to regenerate the configuration file",
			nil,
		)
	}

	abs, err := absPath(configPath)
	if err != nil {
		return nil, errors.NewInternalError(
			"Cannot resolve configuration path",
			"Failed to make the configuration path absolute",
			"This is unexpected. Please report this issue if it persists",
			err,
		)
	}
	cfg.ConfigPath = abs
	return &cfg, nil
}

// SaveConfig writes cfg to configPath as YAML, creating the parent
// directory if needed.
func SaveConfig(cfg *Config, configPath string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.NewInternalError(
			"Cannot encode configuration",
			"YAML marshaling failed unexpectedly",
			"This is a bug. Please report it with your configuration details",
			err,
		)
	}
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.NewPermissionError(
			"Cannot create configuration directory",
			fmt.Sprintf("Permission denied creating %s", dir),
			"Check directory permissions or run with appropriate privileges",
			err,
		)
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return errors.NewPermissionError(
			"Cannot write configuration file",
			fmt.Sprintf("Permission denied writing to %s", configPath),
			"Check file permissions and ensure sufficient disk space",
			err,
		)
	}
	return nil
}

// ConfigPath returns dir/.pathdb/project.yaml.
func ConfigPath(dir string) string {
	return filepath.Join(dir, defaultConfigDir, defaultConfigFile)
}

// ConfigDir returns dir/.pathdb.
func ConfigDir(dir string) string {
	return filepath.Join(dir, defaultConfigDir)
}

func findConfigFile() (string, error) {
	if configPath := os.Getenv("PATHDB_CONFIG_PATH"); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
		return "", errors.NewConfigError(
			"Configuration file not found",
			fmt.Sprintf("PATHDB_CONFIG_PATH is set to '%s' but the file does not exist", configPath),
			"Fix the PATHDB_CONFIG_PATH environment variable or run 'pathdb init' to create a config",
			nil,
		)
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", errors.NewInternalError(
			"Cannot access working directory",
			"Failed to determine current directory path",
			"Check system permissions and try again",
			err,
		)
	}

	for {
		configPath := ConfigPath(dir)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.NewConfigError(
		"Configuration not found",
		"No .pathdb/project.yaml file found in current directory or any parent directory",
		"Run 'pathdb init' to create a new configuration",
		nil,
	)
}

func absPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}
