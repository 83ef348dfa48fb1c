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

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/pathdb/internal/errors"
	"github.com/kraklabs/pathdb/internal/ui"
)

// initFlags holds parsed flags for the init command.
type initFlags struct {
	force            bool
	projectID        string
	indexDepth       int
	lruCapacity      int
	sidecarDebounce  int
	requireCanonical bool
}

// runInit executes 'pathdb init', writing a new .pathdb/project.yaml in the
// current directory.
func runInit(args []string, _ string, globals GlobalFlags) {
	flags := parseInitFlags(args)

	cwd, err := os.Getwd()
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot access working directory",
			"Failed to determine current directory path",
			"This is unexpected. Please report this issue if it persists",
			err,
		), globals.JSON)
	}

	if flags.projectID == "" {
		flags.projectID = filepath.Base(cwd)
	}

	configPath := ConfigPath(cwd)
	if _, err := os.Stat(configPath); err == nil && !flags.force {
		errors.FatalError(errors.NewInputError(
			"Configuration already exists",
			fmt.Sprintf("%s already exists in this directory", configPath),
			"Use 'pathdb init --force' to overwrite the existing configuration",
		), globals.JSON)
	}

	cfg := DefaultConfig(flags.projectID)
	cfg.Index.Depth = flags.indexDepth
	cfg.Index.PathLRUCapacity = flags.lruCapacity
	cfg.Index.RequireCanonical = flags.requireCanonical
	cfg.Sidecar.DebounceSeconds = flags.sidecarDebounce

	if err := SaveConfig(cfg, configPath); err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if globals.JSON {
		fmt.Printf(`{"created":true,"config_path":%q,"project_id":%q}`+"\n", configPath, cfg.ProjectID)
		return
	}

	ui.Successf("Created %s", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  pathdb import <snapshot-file>    Load an existing snapshot")
	fmt.Println("  pathdb status                    Check project status")
}

func parseInitFlags(args []string) initFlags {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var f initFlags
	fs.BoolVar(&f.force, "force", false, "Overwrite existing configuration")
	fs.StringVar(&f.projectID, "project-id", "", "Project identifier (default: directory name)")
	fs.IntVar(&f.indexDepth, "index-depth", 4, "Hops the path index materializes eagerly")
	fs.IntVar(&f.lruCapacity, "path-index-lru-capacity", 4096, "Deeper path signatures cached beyond --index-depth")
	fs.IntVar(&f.sidecarDebounce, "index-sidecar-debounce", 2, "Seconds the sidecar writer waits after the last change before flushing")
	fs.BoolVar(&f.requireCanonical, "require-canonical", false, "Set index.require_canonical in the written config (no command acts on it)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: pathdb init [options]

Description:
  Create a .pathdb/project.yaml configuration file in the current directory.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	return f
}
