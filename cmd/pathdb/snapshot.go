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

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/pathdb/internal/errors"
	"github.com/kraklabs/pathdb/internal/ui"
	"github.com/kraklabs/pathdb/pkg/dialect"
)

// runExport executes 'pathdb export <file>', writing the current project
// snapshot's textual dialect representation to an external file.
func runExport(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: pathdb export <file>

Description:
  Write the current project snapshot (the PathDBExportV1 textual dialect)
  to <file>, for backup or transfer to another machine.
`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		errors.FatalError(errors.NewInputError(
			"Missing destination file",
			"export requires exactly one argument: the destination file path",
			"Run 'pathdb export snapshot.pathdb'",
		), globals.JSON)
	}
	dest := fs.Arg(0)

	db := mustOpenDB(configPath, globals)

	text, err := dialect.ExportSnapshot(db)
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot encode snapshot",
			"Failed to serialize the in-memory graph to the snapshot dialect",
			"This is unexpected. Please report this issue if it persists",
			err,
		), globals.JSON)
	}
	if err := os.WriteFile(dest, []byte(text), 0600); err != nil {
		errors.FatalError(errors.NewPermissionError(
			"Cannot write snapshot file",
			fmt.Sprintf("Permission denied writing to %s", dest),
			"Check file permissions and ensure sufficient disk space",
			err,
		), globals.JSON)
	}

	ui.Successf("Exported snapshot to %s", dest)
}

// runImport executes 'pathdb import <file>', replacing the project's
// current snapshot with the one decoded from an external file.
func runImport(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: pathdb import <file>

Description:
  Replace the current project snapshot with the one decoded from <file>
  (a PathDBExportV1 textual dialect file), discarding whatever was there
  before.
`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		errors.FatalError(errors.NewInputError(
			"Missing source file",
			"import requires exactly one argument: the source file path",
			"Run 'pathdb import snapshot.pathdb'",
		), globals.JSON)
	}
	src := fs.Arg(0)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	dataDir, err := projectDataDir(cfg, configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	data, err := os.ReadFile(src) //nolint:gosec // G304: explicit CLI argument, not derived from untrusted input
	if err != nil {
		errors.FatalError(errors.NewInputError(
			"Cannot read snapshot file",
			fmt.Sprintf("Failed to read %s", src),
			"Check that the file exists and is readable",
		), globals.JSON)
	}

	db, err := dialect.ImportSnapshot(string(data), cfg.DBConfig())
	if err != nil {
		errors.FatalError(errors.NewInputError(
			"Invalid snapshot file",
			fmt.Sprintf("%s is not a valid PathDB snapshot", src),
			"Check that the file was produced by 'pathdb export' and was not truncated",
		), globals.JSON)
	}

	if err := saveDB(db, dataDir); err != nil {
		errors.FatalError(err, globals.JSON)
	}

	ui.Successf("Imported %s (%d entities, %d relations)", src, db.Entities.Count(), db.Relations.Count())
}
