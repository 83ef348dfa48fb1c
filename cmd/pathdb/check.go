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
	"sort"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/pathdb/internal/errors"
	"github.com/kraklabs/pathdb/internal/ui"
	"github.com/kraklabs/pathdb/pkg/constraints"
	"github.com/kraklabs/pathdb/pkg/metaplane"
)

// CheckResult is the 'check' command's JSON-serializable result.
type CheckResult struct {
	Schema     string              `json:"schema"`
	Violations []constraints.Violation `json:"violations"`
	OK         bool                `json:"ok"`
}

// runCheck executes 'pathdb check', evaluating every constraint declared in
// the given schema (or every schema the meta-plane index knows about, if
// --schema is omitted) against the current snapshot.
func runCheck(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	schemaName := fs.String("schema", "", "Schema to check (default: every schema in the meta-plane)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: pathdb check [options]

Description:
  Evaluate every declared constraint (key, functional, symmetric,
  transitive, where-in, cardinality) against the current snapshot and
  report violations. Exits 1 if any violation is found.

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
	db, err := openDB(dataDir, cfg.DBConfig())
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	meta, err := metaplane.FromDB(db)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Cannot load meta-plane",
			"Failed to build the schema/constraint index from the current snapshot",
			"Ensure the snapshot contains a meta-plane module before running 'pathdb check'",
			err,
		), globals.JSON)
	}

	schemas := []string{*schemaName}
	if *schemaName == "" {
		schemas = make([]string, 0, len(meta.Schemas))
		for name := range meta.Schemas {
			schemas = append(schemas, name)
		}
		sort.Strings(schemas)
	}

	var all []constraints.Violation
	for _, name := range schemas {
		checker := constraints.New(db, meta, name)
		all = append(all, checker.CheckAll()...)
	}

	result := CheckResult{Schema: *schemaName, Violations: all, OK: len(all) == 0}

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else if result.OK {
		ui.Success("No constraint violations found.")
	} else {
		ui.Header(fmt.Sprintf("%d constraint violation(s)", len(all)))
		for _, v := range all {
			fmt.Printf("  [%s] %s: %s\n", v.Kind, v.Relation, v.Message)
		}
	}

	if !result.OK {
		os.Exit(1)
	}
}
