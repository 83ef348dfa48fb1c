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

	"github.com/kraklabs/pathdb/internal/errors"
	"github.com/kraklabs/pathdb/pkg/dialect"
	"github.com/kraklabs/pathdb/pkg/pathdb"
	"github.com/kraklabs/pathdb/pkg/sidecar"
)

// openDB loads the snapshot at snapshotPath(dataDir) into a fresh DB built
// from cfg, applying the sidecar cache at sidecarPath(dataDir) when its
// SnapshotID matches the loaded snapshot's content digest. A missing
// snapshot file yields a fresh, empty DB rather than an error, so 'pathdb
// status' on a freshly-init'd project reports zero entities instead of
// failing.
func openDB(dataDir string, cfg pathdb.Config) (*pathdb.DB, error) {
	path := snapshotPath(dataDir)
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is derived from project config, not user input
	if err != nil {
		if os.IsNotExist(err) {
			return pathdb.New(cfg), nil
		}
		return nil, errors.NewDatabaseError(
			"Cannot read snapshot file",
			fmt.Sprintf("Failed to read %s", path),
			"Check file permissions, or run 'pathdb import' to load a snapshot",
			err,
		)
	}

	db, err := dialect.ImportSnapshot(string(data), cfg)
	if err != nil {
		return nil, errors.NewDatabaseError(
			"Cannot parse snapshot file",
			fmt.Sprintf("%s is not a valid PathDB snapshot", path),
			"The file may be corrupted or from an incompatible version",
			err,
		)
	}

	if snap, ok, loadErr := sidecar.Load(sidecarPath(dataDir)); loadErr == nil && ok {
		if snap.SnapshotID == dialect.DigestBytes(data) {
			sidecar.Apply(db, snap)
		}
	}
	return db, nil
}

// saveDB writes db's snapshot to snapshotPath(dataDir) and refreshes the
// sidecar cache alongside it, so the next openDB skips the index rebuild
// RebuildIfDirty would otherwise pay on first query.
func saveDB(db *pathdb.DB, dataDir string) error {
	text, err := dialect.ExportSnapshot(db)
	if err != nil {
		return errors.NewInternalError(
			"Cannot encode snapshot",
			"Failed to serialize the in-memory graph to the snapshot dialect",
			"This is unexpected. Please report this issue if it persists",
			err,
		)
	}

	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return errors.NewPermissionError(
			"Cannot create data directory",
			fmt.Sprintf("Permission denied creating %s", dataDir),
			"Check directory permissions or run with appropriate privileges",
			err,
		)
	}

	data := []byte(text)
	path := snapshotPath(dataDir)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return errors.NewPermissionError(
			"Cannot write snapshot file",
			fmt.Sprintf("Permission denied writing to %s", tmp),
			"Check file permissions and ensure sufficient disk space",
			err,
		)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.NewPermissionError(
			"Cannot finalize snapshot file",
			fmt.Sprintf("Failed to rename %s into place", tmp),
			"Check directory permissions and try again",
			err,
		)
	}

	// CLI commands are one-shot, so there is no debounce window worth
	// amortizing a background Writer over: force one synchronous flush by
	// marking dirty and shutting down immediately.
	writer := sidecar.New(db, sidecarPath(dataDir), 0, dialect.DigestBytes(data))
	writer.MarkDirty()
	writer.Shutdown()
	return nil
}
