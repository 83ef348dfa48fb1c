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

package sidecar_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/pathdb/pkg/fixedprob"
	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/interner"
	"github.com/kraklabs/pathdb/pkg/pathdb"
	"github.com/kraklabs/pathdb/pkg/sidecar"
)

func buildDB() *pathdb.DB {
	db := pathdb.New(pathdb.DefaultConfig())
	personType := db.Interner.Intern("Person")
	nameKey := db.Interner.Intern("name")
	worksAt := db.Interner.Intern("works_at")

	alice := db.AddEntity(personType, map[interner.StrId]graph.Value{nameKey: graph.StringValue("Alice Smith")})
	bob := db.AddEntity(personType, map[interner.StrId]graph.Value{nameKey: graph.StringValue("Bob Jones")})
	db.AddRelation(worksAt, alice, bob, fixedprob.FromF32(0.8), nil)
	return db
}

func TestWriterFlushesAfterDebounceAndLoadRoundTrips(t *testing.T) {
	db := buildDB()
	path := filepath.Join(t.TempDir(), "index.sidecar")

	w := sidecar.New(db, path, 20*time.Millisecond, "snap-1")
	w.MarkDirty()
	time.Sleep(100 * time.Millisecond)
	w.Shutdown()

	snap, ok, err := sidecar.Load(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sidecar.Version, snap.Version)
	assert.Equal(t, "snap-1", snap.SnapshotID)
	require.NotNil(t, snap.FactIndex)
	require.NotNil(t, snap.TextIndex)
	require.NotNil(t, snap.PathLRU)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.sidecar")
	snap, ok, err := sidecar.Load(path)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, sidecar.Snapshot{}, snap)
}

func TestShutdownFlushesPendingDirtyMark(t *testing.T) {
	db := buildDB()
	path := filepath.Join(t.TempDir(), "index.sidecar")

	w := sidecar.New(db, path, time.Hour, "snap-2")
	w.MarkDirty()
	w.Shutdown() // debounce never fires on its own; Shutdown must flush

	_, ok, err := sidecar.Load(path)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestApplyInstallsSnapshotOntoFreshDB(t *testing.T) {
	db := buildDB()
	path := filepath.Join(t.TempDir(), "index.sidecar")
	w := sidecar.New(db, path, 10*time.Millisecond, "snap-3")
	w.MarkDirty()
	time.Sleep(60 * time.Millisecond)
	w.Shutdown()

	snap, ok, err := sidecar.Load(path)
	require.NoError(t, err)
	require.True(t, ok)

	fresh := pathdb.New(pathdb.DefaultConfig())
	sidecar.Apply(fresh, snap)
}
