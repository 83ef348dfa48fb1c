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

package snapshotsync_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/pathdb/pkg/snapshotsync"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSyncCopiesContentAddressedFilesOnce(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "modules", "ab", "cd1234"), "module body")
	writeFile(t, filepath.Join(src, "pathdb", "blobs", "ef5678"), "blob body")

	result, err := snapshotsync.Sync(snapshotsync.Config{SourceRoot: src, DestRoot: dst})
	require.NoError(t, err)
	assert.Equal(t, 2, result.FilesCopied)
	assert.Equal(t, 0, result.FilesSkipped)

	data, err := os.ReadFile(filepath.Join(dst, "modules", "ab", "cd1234"))
	require.NoError(t, err)
	assert.Equal(t, "module body", string(data))
}

func TestSyncIsCopyIfMissingOnSecondRun(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "modules", "x"), "v1")

	_, err := snapshotsync.Sync(snapshotsync.Config{SourceRoot: src, DestRoot: dst})
	require.NoError(t, err)

	result, err := snapshotsync.Sync(snapshotsync.Config{SourceRoot: src, DestRoot: dst})
	require.NoError(t, err)
	assert.Equal(t, 0, result.FilesCopied)
	assert.Equal(t, 1, result.FilesSkipped)
}

func TestSyncSkipsLogsWithoutIncludeLogs(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "pathdb", "index.log"), "log line")

	_, err := snapshotsync.Sync(snapshotsync.Config{SourceRoot: src, DestRoot: dst})
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dst, "pathdb", "index.log"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSyncCopiesLogsUnconditionallyWhenRequested(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "pathdb", "index.log"), "log v1")

	_, err := snapshotsync.Sync(snapshotsync.Config{SourceRoot: src, DestRoot: dst, IncludeLogs: true})
	require.NoError(t, err)

	writeFile(t, filepath.Join(src, "pathdb", "index.log"), "log v2")
	_, err = snapshotsync.Sync(snapshotsync.Config{SourceRoot: src, DestRoot: dst, IncludeLogs: true})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dst, "pathdb", "index.log"))
	require.NoError(t, err)
	assert.Equal(t, "log v2", string(data))
}

func TestSyncUpdatesHeadPointer(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "pathdb", "HEAD"), "snap-7")

	_, err := snapshotsync.Sync(snapshotsync.Config{SourceRoot: src, DestRoot: dst})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dst, "pathdb", "HEAD"))
	require.NoError(t, err)
	assert.Equal(t, "snap-7", string(data))
}

func TestSyncDryRunWritesNothing(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "modules", "x"), "body")

	result, err := snapshotsync.Sync(snapshotsync.Config{SourceRoot: src, DestRoot: dst, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesCopied)

	_, statErr := os.Stat(filepath.Join(dst, "modules", "x"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSyncOfNonExistentSourceTreeIsNoOp(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	result, err := snapshotsync.Sync(snapshotsync.Config{SourceRoot: filepath.Join(src, "missing"), DestRoot: dst})
	require.NoError(t, err)
	assert.NotEmpty(t, result.DirsNotFound)
}

func TestSyncOfNonDirectorySourceIsAnError(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "modules"), "this is a file, not a dir")

	_, err := snapshotsync.Sync(snapshotsync.Config{SourceRoot: src, DestRoot: dst})
	assert.Error(t, err)
}
