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
	"github.com/kraklabs/pathdb/pkg/snapshotsync"
)

// runSync executes 'pathdb sync <dest>', replicating the project's data
// directory onto another filesystem root via pkg/snapshotsync.
func runSync(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	includeLogs := fs.Bool("include-logs", false, "Also replicate append-only logs")
	includeCheckpoints := fs.Bool("include-checkpoints", false, "Also replicate the optional checkpoints directory")
	compressBlobs := fs.Bool("compress-blobs", false, "zstd-compress files replicated into pathdb/blobs")
	dryRun := fs.Bool("dry-run", false, "Report what would be copied without writing anything")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: pathdb sync <destination-root> [options]

Description:
  Replicate the project's data directory onto <destination-root>:
  content-addressed directories copy-if-missing, append-only logs and the
  HEAD pointer update last so a reader at the destination never observes a
  HEAD pointing at content that hasn't landed yet.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		errors.FatalError(errors.NewInputError(
			"Missing destination root",
			"sync requires exactly one argument: the destination root directory",
			"Run 'pathdb sync /path/to/replica'",
		), globals.JSON)
	}
	dest := fs.Arg(0)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	dataDir, err := projectDataDir(cfg, configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	result, err := snapshotsync.Sync(snapshotsync.Config{
		SourceRoot:         dataDir,
		DestRoot:           dest,
		IncludeLogs:        *includeLogs,
		IncludeCheckpoints: *includeCheckpoints,
		CompressBlobs:      *compressBlobs,
		DryRun:             *dryRun,
		ShowProgress:       !globals.Quiet && !*dryRun,
	})
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Sync failed",
			err.Error(),
			"Check that both the source and destination roots are accessible",
			err,
		), globals.JSON)
	}

	verb := "Synced"
	if *dryRun {
		verb = "Would sync"
	}
	ui.Successf("%s %d file(s) (%d bytes), %d already present", verb, result.FilesCopied, result.BytesCopied, result.FilesSkipped)
	for _, dir := range result.DirsNotFound {
		ui.Warningf("source directory not found, skipped: %s", dir)
	}
}
