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

package pathdb

import (
	"sync"

	"github.com/kraklabs/pathdb/pkg/bitmap"
	"github.com/kraklabs/pathdb/pkg/graph"
	"github.com/kraklabs/pathdb/pkg/interner"
)

// Well-known attribute and relation label strings identifying a fact node
// and its context scoping. A fact node is any entity carrying
// AttrAxiRelation; AttrAxiSchema names the schema it is typed under.
// Context scoping is NOT an attribute: it is the edge RelAxiFactInContext,
// (fact node) -> (context entity), which whoever writes the fact node adds
// alongside it. These strings are the shared vocabulary between FactIndex
// and pkg/metaplane.
const (
	AttrAxiRelation     = "axi_relation"
	AttrAxiSchema       = "axi_schema"
	RelAxiFactInContext = "axi_fact_in_context"
)

type factKey struct {
	schema   interner.StrId
	relation interner.StrId
}

// FactIndex answers "all fact nodes of relation R in schema S" and "all
// fact nodes scoped to context C" without a full entity scan. It rebuilds
// lazily: mutations only set a dirty flag, and the next read pays the
// rebuild cost once.
type FactIndex struct {
	db *DB

	mu    sync.Mutex
	dirty bool

	bySchemaRelation map[factKey]*bitmap.Bitmap
	byContext        map[graph.EntityID]*bitmap.Bitmap
}

func newFactIndex(db *DB) *FactIndex {
	return &FactIndex{
		db:               db,
		dirty:            true,
		bySchemaRelation: make(map[factKey]*bitmap.Bitmap),
		byContext:        make(map[graph.EntityID]*bitmap.Bitmap),
	}
}

func (fi *FactIndex) markDirty() {
	fi.mu.Lock()
	fi.dirty = true
	fi.mu.Unlock()
}

// RebuildIfDirty rebuilds the index from scratch if any mutation has
// happened since the last rebuild. Safe to call on every query.
func (fi *FactIndex) RebuildIfDirty() {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	if !fi.dirty {
		return
	}
	fi.rebuildLocked()
	fi.dirty = false
	if fi.db.metrics.factIndexRebuilds != nil {
		fi.db.metrics.factIndexRebuilds.Inc()
	}
}

func (fi *FactIndex) rebuildLocked() {
	bySchemaRelation := make(map[factKey]*bitmap.Bitmap)
	byContext := make(map[graph.EntityID]*bitmap.Bitmap)

	relKeyID, hasRelKey := fi.db.Interner.IDOf(AttrAxiRelation)
	if !hasRelKey {
		fi.bySchemaRelation = bySchemaRelation
		fi.byContext = byContext
		return
	}
	schemaKeyID, _ := fi.db.Interner.IDOf(AttrAxiSchema)

	for _, e := range fi.db.Entities.All() {
		relVal, ok := e.Attrs[relKeyID]
		if !ok {
			continue
		}
		schemaVal := e.Attrs[schemaKeyID]
		relStr := fi.db.Interner.Intern(relVal.Str)
		schemaStr := fi.db.Interner.Intern(schemaVal.Str)
		k := factKey{schema: schemaStr, relation: relStr}
		b, ok := bySchemaRelation[k]
		if !ok {
			b = bitmap.New()
			bySchemaRelation[k] = b
		}
		b.Add(uint32(e.ID))
	}

	if ctxRelID, ok := fi.db.Interner.IDOf(RelAxiFactInContext); ok {
		for _, r := range fi.db.Relations.ByRelType(ctxRelID) {
			cb, ok := byContext[r.Target]
			if !ok {
				cb = bitmap.New()
				byContext[r.Target] = cb
			}
			cb.Add(uint32(r.Source))
		}
	}

	fi.bySchemaRelation = bySchemaRelation
	fi.byContext = byContext
}

// FactsOf returns the bitmap of fact-node entity ids for a given schema and
// relation name.
func (fi *FactIndex) FactsOf(schema, relation string) *bitmap.Bitmap {
	fi.RebuildIfDirty()
	fi.mu.Lock()
	defer fi.mu.Unlock()
	schemaID, ok1 := fi.db.Interner.IDOf(schema)
	relID, ok2 := fi.db.Interner.IDOf(relation)
	if !ok1 || !ok2 {
		return bitmap.New()
	}
	if b, ok := fi.bySchemaRelation[factKey{schema: schemaID, relation: relID}]; ok {
		return b
	}
	return bitmap.New()
}

// FactsInContext returns the bitmap of fact-node entity ids scoped to the
// given context entity.
func (fi *FactIndex) FactsInContext(context graph.EntityID) *bitmap.Bitmap {
	fi.RebuildIfDirty()
	fi.mu.Lock()
	defer fi.mu.Unlock()
	if b, ok := fi.byContext[context]; ok {
		return b
	}
	return bitmap.New()
}
