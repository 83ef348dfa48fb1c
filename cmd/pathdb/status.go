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
	"encoding/json"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/pathdb/internal/errors"
	"github.com/kraklabs/pathdb/internal/ui"
)

// StatusResult is the 'status' command's JSON-serializable result.
type StatusResult struct {
	ProjectID      string    `json:"project_id"`
	DataDir        string    `json:"data_dir"`
	Indexed        bool      `json:"indexed"`
	Entities       int       `json:"entities"`
	Relations      int       `json:"relations"`
	InternedStrs   int       `json:"interned_strings"`
	PathIndexCache int       `json:"path_index_cache_entries"`
	Error          string    `json:"error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// runStatus executes 'pathdb status', reporting entity/relation counts and
// derived-index sizes for the project's current snapshot.
func runStatus(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: pathdb status [options]

Description:
  Display the current snapshot's entity/relation counts and derived-index
  sizes (number of cached path index signatures).

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	dataDir, err := projectDataDir(cfg, configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	result := &StatusResult{
		ProjectID: cfg.ProjectID,
		DataDir:   dataDir,
		Timestamp: time.Now(),
	}

	if _, statErr := os.Stat(snapshotPath(dataDir)); os.IsNotExist(statErr) {
		if legacy, legacyErr := legacyDefaultProjectDataDir(cfg.ProjectID); legacyErr == nil && legacy != dataDir {
			if _, legacyStatErr := os.Stat(snapshotPath(legacy)); legacyStatErr == nil {
				ui.Warningf("Found a snapshot under the legacy data directory %s; set PATHDB_DATA_DIR or sidecar.local_data_dir to adopt it", legacy)
			}
		}
		result.Indexed = false
		result.Error = "No snapshot found. Run 'pathdb import' to load one."
		if globals.JSON {
			outputStatusJSON(result)
		} else {
			ui.Warningf("Project '%s' has no snapshot yet.", cfg.ProjectID)
			ui.Info("Run 'pathdb import <file>' to load one.")
		}
		return
	}

	db, err := openDB(dataDir, cfg.DBConfig())
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	result.Indexed = true
	result.Entities = db.Entities.Count()
	result.Relations = db.Relations.Count()
	result.InternedStrs = db.Interner.Len()
	result.PathIndexCache = db.PathIndex().Len()

	if globals.JSON {
		outputStatusJSON(result)
	} else {
		printStatus(result)
	}
}

func outputStatusJSON(result *StatusResult) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
}

func printStatus(result *StatusResult) {
	ui.Header("PathDB Project Status")
	fmt.Printf("%s   %s\n", ui.Label("Project ID:"), result.ProjectID)
	fmt.Printf("%s     %s\n", ui.Label("Data Dir:"), ui.DimText(result.DataDir))
	fmt.Println()

	ui.SubHeader("Graph:")
	fmt.Printf("  Entities:          %s\n", ui.CountText(result.Entities))
	fmt.Printf("  Relations:         %s\n", ui.CountText(result.Relations))
	fmt.Printf("  Interned strings:  %s\n", ui.CountText(result.InternedStrs))
	fmt.Printf("  Path index cache:  %s\n", ui.CountText(result.PathIndexCache))

	if result.Error != "" {
		fmt.Println()
		ui.Warning(result.Error)
	}
}
