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

func buildSearchFixture(t *testing.T) (*pathdb.DB, interner.StrId) {
	t.Helper()
	db := pathdb.New(pathdb.DefaultConfig())
	personType := db.Interner.Intern("Person")
	bioKey := db.Interner.Intern("bio")

	db.AddEntity(personType, map[interner.StrId]graph.Value{
		bioKey: graph.StringValue("machinist who repairs lathes"),
	})
	db.AddEntity(personType, map[interner.StrId]graph.Value{
		bioKey: graph.StringValue("painter who loves color theory"),
	})
	db.AddEntity(personType, map[interner.StrId]graph.Value{
		bioKey: graph.StringValue("machinist apprentice learning lathes"),
	})
	return db, bioKey
}

func TestEntitiesWithAttrFTSFindsTokenMatches(t *testing.T) {
	db, _ := buildSearchFixture(t)

	result, err := query.EntitiesWithAttrFTS(db, query.SearchArgs{AttrKey: "bio", Query: "lathes"})
	require.NoError(t, err)
	assert.Len(t, result.Matches, 2)
	assert.False(t, result.Truncated)
}

func TestEntitiesWithAttrFTSRequiresAttrAndQuery(t *testing.T) {
	db, _ := buildSearchFixture(t)

	_, err := query.EntitiesWithAttrFTS(db, query.SearchArgs{Query: "lathes"})
	assert.Error(t, err)

	_, err = query.EntitiesWithAttrFTS(db, query.SearchArgs{AttrKey: "bio"})
	assert.Error(t, err)
}

func TestEntitiesWithAttrFTSUnknownAttrKeyYieldsNoMatches(t *testing.T) {
	db, _ := buildSearchFixture(t)

	result, err := query.EntitiesWithAttrFTS(db, query.SearchArgs{AttrKey: "does_not_exist", Query: "lathes"})
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
}

func TestEntitiesWithAttrFTSTruncatesAtLimit(t *testing.T) {
	db, _ := buildSearchFixture(t)

	result, err := query.EntitiesWithAttrFTS(db, query.SearchArgs{AttrKey: "bio", Query: "machinist", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, result.Matches, 1)
	assert.True(t, result.Truncated)
}

func TestFactsOfRelationReturnsFactNodesForSchemaRelation(t *testing.T) {
	db := pathdb.New(pathdb.DefaultConfig())
	personType := db.Interner.Intern("Person")
	factType := db.Interner.Intern("worksAt")
	schemaKey := db.Interner.Intern("axi_schema")
	relKey := db.Interner.Intern("axi_relation")

	alice := db.AddEntity(personType, nil)
	fact := db.AddEntity(factType, map[interner.StrId]graph.Value{
		schemaKey: graph.StringValue("S"),
		relKey:    graph.StringValue("worksAt"),
	})
	fromRel := db.Interner.Intern("from")
	db.AddRelation(fromRel, fact, alice, fixedprob.One, nil)

	facts := query.FactsOfRelation(db, "S", "worksAt")
	assert.Equal(t, []graph.EntityID{fact}, facts)
}
