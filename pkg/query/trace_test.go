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

package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/pathdb/pkg/fixedprob"
	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/interner"
	"github.com/kraklabs/pathdb/pkg/pathdb"
	"github.com/kraklabs/pathdb/pkg/query"
)

// buildChainDB builds Alice -knows-> Bob -knows-> Carol -worksAt-> ACME, a
// fixture mirroring the teacher's TracePath waypoint-chasing tests
// (pkg/tools/trace.go) adapted to PathDB's graph model.
func buildChainDB(t *testing.T) (db *pathdb.DB, alice, bob, carol, acme graph.EntityID) {
	t.Helper()
	db = pathdb.New(pathdb.DefaultConfig())
	personType := db.Interner.Intern("Person")
	orgType := db.Interner.Intern("Org")
	knows := db.Interner.Intern("knows")
	worksAt := db.Interner.Intern("worksAt")

	alice = db.AddEntity(personType, nil)
	bob = db.AddEntity(personType, nil)
	carol = db.AddEntity(personType, nil)
	acme = db.AddEntity(orgType, nil)

	db.AddRelation(knows, alice, bob, fixedprob.One, nil)
	db.AddRelation(knows, bob, carol, fixedprob.One, nil)
	db.AddRelation(worksAt, carol, acme, fixedprob.FromF32(0.8), nil)
	return db, alice, bob, carol, acme
}

func TestTracePathFindsShortestChainAcrossRelationTypes(t *testing.T) {
	db, alice, _, _, acme := buildChainDB(t)

	branded, err := query.TracePath(db, query.TraceArgs{Source: alice, Target: acme})
	require.NoError(t, err)

	cert, err := branded.Get(db)
	require.NoError(t, err)
	assert.Equal(t, 2, cert.Version)
}

func TestTracePathReturnsErrorWhenUnreachableWithinMaxDepth(t *testing.T) {
	db, alice, _, _, acme := buildChainDB(t)

	_, err := query.TracePath(db, query.TraceArgs{Source: alice, Target: acme, MaxDepth: 1})
	assert.Error(t, err)
}

func TestTracePathHonorsRelTypeFilter(t *testing.T) {
	db, alice, _, _, acme := buildChainDB(t)
	knows := db.Interner.Intern("knows") // already interned; re-resolves same id

	_, err := query.TracePath(db, query.TraceArgs{Source: alice, Target: acme, RelTypes: []interner.StrId{knows}})
	assert.Error(t, err, "acme is only reachable via worksAt, excluded by the relType filter")
}

func TestTracePathSourceEqualsTargetIsTrivial(t *testing.T) {
	db, alice, _, _, _ := buildChainDB(t)

	branded, err := query.TracePath(db, query.TraceArgs{Source: alice, Target: alice})
	require.NoError(t, err)
	_, err = branded.Get(db)
	require.NoError(t, err)
}

func TestTracePathRejectsWitnessFromAnotherDB(t *testing.T) {
	db, alice, _, _, acme := buildChainDB(t)
	other, _, _, _, _ := buildChainDB(t)

	branded, err := query.TracePath(db, query.TraceArgs{Source: alice, Target: acme})
	require.NoError(t, err)

	_, err = branded.Get(other)
	assert.Error(t, err)
}
