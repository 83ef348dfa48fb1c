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

package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/pathdb/pkg/fixedprob"
	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/interner"
)

func TestEntityStoreByTypeAndAttr(t *testing.T) {
	in := interner.New()
	person := in.Intern("Person")
	nameKey := in.Intern("name")

	es := graph.NewEntityStore()
	a := es.Add(person, map[interner.StrId]graph.Value{nameKey: graph.StringValue("Ada")})
	b := es.Add(person, map[interner.StrId]graph.Value{nameKey: graph.StringValue("Bea")})

	assert.ElementsMatch(t, []uint32{uint32(a), uint32(b)}, es.ByType(person).ToSlice())
	assert.ElementsMatch(t, []uint32{uint32(a)}, es.ByAttrValue(nameKey, graph.StringValue("Ada")).ToSlice())
}

func TestEntityStoreSetAttrUpdatesIndex(t *testing.T) {
	in := interner.New()
	typeID := in.Intern("T")
	key := in.Intern("k")

	es := graph.NewEntityStore()
	id := es.Add(typeID, map[interner.StrId]graph.Value{key: graph.IntValue(1)})

	require.NoError(t, es.SetAttr(id, key, graph.IntValue(2)))
	assert.True(t, es.ByAttrValue(key, graph.IntValue(2)).Contains(uint32(id)))
	assert.False(t, es.ByAttrValue(key, graph.IntValue(1)).Contains(uint32(id)))
}

func TestRelationStoreAdjacencyAndEdgeLookup(t *testing.T) {
	in := interner.New()
	knows := in.Intern("knows")

	es := graph.NewEntityStore()
	typeID := in.Intern("Person")
	a := es.Add(typeID, nil)
	b := es.Add(typeID, nil)

	rs := graph.NewRelationStore()
	relID := rs.AddRelation(knows, a, b, fixedprob.One, nil)

	assert.True(t, rs.HasEdge(knows, a, b))
	assert.False(t, rs.HasEdge(knows, b, a))
	assert.True(t, rs.Targets(knows, a).Contains(uint32(b)))
	assert.True(t, rs.Sources(knows, b).Contains(uint32(a)))

	got, ok := rs.EdgeRelationID(knows, a, b)
	require.True(t, ok)
	assert.Equal(t, relID, got)
}

func TestRelationStoreValidateChain(t *testing.T) {
	in := interner.New()
	knows := in.Intern("knows")
	typeID := in.Intern("Person")

	es := graph.NewEntityStore()
	a := es.Add(typeID, nil)
	b := es.Add(typeID, nil)
	c := es.Add(typeID, nil)

	rs := graph.NewRelationStore()
	r1 := rs.AddRelation(knows, a, b, fixedprob.One, nil)
	r2 := rs.AddRelation(knows, b, c, fixedprob.One, nil)

	start, end, err := rs.ValidateChain([]graph.RelationID{r1, r2})
	require.NoError(t, err)
	assert.Equal(t, a, start)
	assert.Equal(t, c, end)

	_, _, err = rs.ValidateChain([]graph.RelationID{r2, r1})
	require.Error(t, err)
}

func TestEquivalenceStoreIsSymmetric(t *testing.T) {
	in := interner.New()
	label := in.Intern("sameAs")
	typeID := in.Intern("T")

	es := graph.NewEntityStore()
	a := es.Add(typeID, nil)
	b := es.Add(typeID, nil)

	eq := graph.NewEquivalenceStore()
	eq.Add(label, a, b)

	assert.True(t, eq.AreEquivalent(label, a, b))
	assert.True(t, eq.AreEquivalent(label, b, a))
}
