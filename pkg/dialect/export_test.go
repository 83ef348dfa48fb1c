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

package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/pathdb/pkg/dialect"
	"github.com/kraklabs/pathdb/pkg/fixedprob"
	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/interner"
	"github.com/kraklabs/pathdb/pkg/pathdb"
)

// buildFixtureDB mirrors the Rust round-trip fixture in
// axi_export_tests.rs: Alice/Bob/ACME with unicode and delimiter-bearing
// attribute values, a works_at/knows relation pair carrying non-trivial
// fixed-point confidences, and one equivalence.
func buildFixtureDB(t *testing.T) *pathdb.DB {
	t.Helper()
	db := pathdb.New(pathdb.DefaultConfig())

	personType := db.Interner.Intern("Person")
	orgType := db.Interner.Intern("Org")
	nameKey := db.Interner.Intern("name")
	noteKey := db.Interner.Intern("note")
	worksAt := db.Interner.Intern("works_at")
	knows := db.Interner.Intern("knows")
	possiblySame := db.Interner.Intern("PossibleSamePerson?")

	alice := db.AddEntity(personType, map[interner.StrId]graph.Value{
		nameKey: graph.StringValue("Alice"),
		noteKey: graph.StringValue("likes R&D; works \"odd\" hours"),
	})
	bob := db.AddEntity(personType, map[interner.StrId]graph.Value{
		nameKey: graph.StringValue("Bob"),
	})
	acme := db.AddEntity(orgType, map[interner.StrId]graph.Value{
		nameKey: graph.StringValue("ACME Δ"),
	})

	conf90 := fixedprob.FromF32(0.9)
	conf625 := fixedprob.FromF32(0.625)

	db.AddRelation(worksAt, alice, acme, conf90, map[interner.StrId]graph.Value{
		noteKey: graph.StringValue("full time"),
	})
	db.AddRelation(knows, alice, bob, conf625, nil)

	db.AddEquivalence(possiblySame, alice, bob)

	return db
}

func TestExportSnapshotRoundTripIsDeterministicAndReversible(t *testing.T) {
	db := buildFixtureDB(t)

	text1, err := dialect.ExportSnapshot(db)
	require.NoError(t, err)

	imported, err := dialect.ImportSnapshot(text1, pathdb.DefaultConfig())
	require.NoError(t, err)

	text2, err := dialect.ExportSnapshot(imported)
	require.NoError(t, err)

	assert.Equal(t, text1, text2)
}

func TestExportSnapshotHasExpectedHeaderAndSections(t *testing.T) {
	db := buildFixtureDB(t)
	text, err := dialect.ExportSnapshot(db)
	require.NoError(t, err)

	assert.Contains(t, text, dialect.ExportVersionV1+"\n")
	assert.Contains(t, text, "[strings]\n")
	assert.Contains(t, text, "[entities]\n")
	assert.Contains(t, text, "[relations]\n")
	assert.Contains(t, text, "[equivalences]\n")
}

func TestImportSnapshotRejectsUnknownVersion(t *testing.T) {
	_, err := dialect.ImportSnapshot("not_a_real_version\n[strings]\n", pathdb.DefaultConfig())
	assert.Error(t, err)
}

func TestImportSnapshotRejectsEmptyInput(t *testing.T) {
	_, err := dialect.ImportSnapshot("", pathdb.DefaultConfig())
	assert.Error(t, err)
}
