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
	"os"
	"path/filepath"

	"github.com/kraklabs/pathdb/internal/errors"
)

const legacyDataDirName = ".pathdb-data"

// dataRootFromConfig resolves the root directory under which every
// project's snapshot lives: PATHDB_DATA_DIR env var, else cfg's configured
// directory (absolute, or relative to the config file's directory), else
// ~/.pathdb/data. cfg may be nil, in which case only the env var and the
// home-directory default are consulted.
func dataRootFromConfig(cfg *Config, configPath string) (string, error) {
	if root := os.Getenv("PATHDB_DATA_DIR"); root != "" {
		return absPath(root)
	}

	if cfg != nil && cfg.Sidecar.LocalDataDir != "" {
		dir := cfg.Sidecar.LocalDataDir
		if !filepath.IsAbs(dir) {
			resolved, err := resolvedConfigPath(configPath)
			if err != nil {
				return "", err
			}
			dir = filepath.Join(filepath.Dir(resolved), dir)
		}
		return absPath(dir)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewInternalError(
			"Cannot determine home directory",
			"Failed to resolve the current user's home directory",
			"Set PATHDB_DATA_DIR to an explicit path instead",
			err,
		)
	}
	return filepath.Join(home, ".pathdb", "data"), nil
}

// projectDataDir returns the directory holding one project's snapshot and
// sidecar files: dataRoot/<project_id>.
func projectDataDir(cfg *Config, configPath string) (string, error) {
	root, err := dataRootFromConfig(cfg, configPath)
	if err != nil {
		return "", err
	}
	if cfg.ProjectID == "" {
		return "", errors.NewConfigError(
			"Missing project ID",
			"The configuration does not specify a project_id",
			"Edit .pathdb/project.yaml and set project_id, or run 'pathdb init' again",
			nil,
		)
	}
	return filepath.Join(root, cfg.ProjectID), nil
}

// legacyDefaultProjectDataDir returns the pre-PATHDB_DATA_DIR default
// location (~/.pathdb-data/<project_id>), kept only so 'pathdb status' can
// point users at data left behind by older builds rather than reporting a
// silent "not indexed yet".
func legacyDefaultProjectDataDir(projectID string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, legacyDataDirName, projectID), nil
}

// resolvedConfigPath returns configPath if non-empty, else the path
// findConfigFile would discover.
func resolvedConfigPath(configPath string) (string, error) {
	if configPath != "" {
		return absPath(configPath)
	}
	return findConfigFile()
}

// snapshotPath returns the path to a project's on-disk snapshot file within
// its data directory.
func snapshotPath(dataDir string) string {
	return filepath.Join(dataDir, "snapshot.pathdb")
}

// sidecarPath returns the path to a project's sidecar debounce file.
func sidecarPath(dataDir string) string {
	return filepath.Join(dataDir, "sidecar.cbor")
}
